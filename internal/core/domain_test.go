package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2023-12-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2023 || d.Month() != 12 || d.Day() != 1 {
		t.Fatalf("unexpected date %v", d)
	}
	for _, in := range []string{"", "01/12/2023", "2023-13-01", "2023-02-30"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected validation error, got %v", in, err)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2023, 12, 2))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2023-12-02"` {
		t.Fatalf("unexpected encoding %s", b)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-02-29"`), &d); err != nil {
		t.Fatal(err)
	}
	if d.Compare(NewDate(2024, 2, 29)) != 0 {
		t.Fatalf("unexpected decoded date %v", d)
	}
	if err := json.Unmarshal([]byte(`"yesterday"`), &d); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0.01", true},
		{"99999999.99", true},
		{"0", false},
		{"-5", false},
		{"100000000.00", false},
		{"1.234", false},
	}
	for _, tc := range cases {
		err := ValidateAmount(decimal.RequireFromString(tc.in))
		if tc.ok && err != nil {
			t.Fatalf("%s expected ok, got %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%s expected error", tc.in)
			}
			if !errors.Is(err, ErrInvalidAmount) || !errors.Is(err, ErrValidation) {
				t.Fatalf("%s expected amount validation error, got %v", tc.in, err)
			}
		}
	}
}

func TestIncomeValidate(t *testing.T) {
	good := Income{
		CategoryID: 1,
		Source:     "Salary",
		Amount:     decimal.RequireFromString("3000.00"),
		Date:       NewDate(2023, 12, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := map[string]func(i *Income){
		"category_id": func(i *Income) { i.CategoryID = 0 },
		"source":      func(i *Income) { i.Source = "  " },
		"amount":      func(i *Income) { i.Amount = decimal.Zero },
		"date":        func(i *Income) { i.Date = Date{} },
		"note":        func(i *Income) { i.Note = strings.Repeat("n", MaxNoteLength+1) },
	}
	for field, mutate := range bads {
		in := good
		mutate(&in)
		err := in.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", field, err)
		}
		if ve.Field != field {
			t.Fatalf("expected field %s, got %s", field, ve.Field)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Title:  "Groceries",
		Amount: decimal.RequireFromString("150.00"),
		Date:   NewDate(2023, 12, 2),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Title: "", Amount: good.Amount, Date: good.Date},
		{Title: strings.Repeat("x", MaxTextLength+1), Amount: good.Amount, Date: good.Date},
		{Title: "a", Amount: decimal.RequireFromString("-1"), Date: good.Date},
		{Title: "a", Amount: good.Amount},
	}
	for i, e := range bads {
		if err := e.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Salary"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: ""}).Validate(); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{"": "", "all": "", "Income": KindIncome, " expense ": KindExpense}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("%q expected %q, got %q (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseKind("transfer"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestInvalidRangeIsValidation(t *testing.T) {
	err := RangeError("date_from", "date_to")
	if !errors.Is(err, ErrInvalidRange) || !errors.Is(err, ErrValidation) {
		t.Fatalf("range error should classify as validation, got %v", err)
	}
}
