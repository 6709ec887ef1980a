package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the calendar date format used on every boundary.
	DateLayout = "2006-01-02"

	MaxTextLength = 100
	MaxNoteLength = 1000
)

// MaxAmount is the largest amount a single record may carry.
var MaxAmount = decimal.RequireFromString("99999999.99")

type (
	// Date is a calendar date stored at UTC midnight.
	Date struct {
		time.Time
	}

	Category struct {
		ID        int64
		Name      string
		CreatedAt time.Time
	}

	Income struct {
		ID         int64
		CategoryID int64
		Source     string
		Amount     decimal.Decimal
		Date       Date
		Note       string
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	Expense struct {
		ID        int64
		Title     string
		Amount    decimal.Decimal
		Date      Date
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Message: "invalid format, use YYYY-MM-DD", Err: ErrInvalidDate}
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Compare orders two dates, returning -1, 0 or +1.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &ValidationError{Field: "date", Message: "must be a string", Err: ErrInvalidDate}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ValidateAmount checks the positive, bounded, two-decimal amount rule.
func ValidateAmount(a decimal.Decimal) error {
	if a.Sign() <= 0 {
		return &ValidationError{Field: "amount", Message: "must be greater than 0", Err: ErrInvalidAmount}
	}
	if a.GreaterThan(MaxAmount) {
		return &ValidationError{Field: "amount", Message: "must not exceed " + MaxAmount.StringFixed(2), Err: ErrInvalidAmount}
	}
	if !a.Equal(a.Round(2)) {
		return &ValidationError{Field: "amount", Message: "must have at most two decimal places", Err: ErrInvalidAmount}
	}
	return nil
}

func validateText(field, value string, max int, required bool) error {
	if required && strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required", Err: ErrEmptyField}
	}
	if len([]rune(value)) > max {
		return &ValidationError{Field: field, Message: fmt.Sprintf("too long (max %d characters)", max)}
	}
	return nil
}

func (c Category) Validate() error {
	return validateText("name", c.Name, MaxTextLength, true)
}

func (i Income) Validate() error {
	if i.CategoryID <= 0 {
		return &ValidationError{Field: "category_id", Message: "is required", Err: ErrEmptyField}
	}
	if err := validateText("source", i.Source, MaxTextLength, true); err != nil {
		return err
	}
	if err := ValidateAmount(i.Amount); err != nil {
		return err
	}
	if err := i.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Message: "is required", Err: err}
	}
	return validateText("note", i.Note, MaxNoteLength, false)
}

func (e Expense) Validate() error {
	if err := validateText("title", e.Title, MaxTextLength, true); err != nil {
		return err
	}
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Message: "is required", Err: err}
	}
	return nil
}
