package http

import (
	"context"
	"net/http"
	"time"

	"wallet/internal/core"
	"wallet/internal/ledger"
	applog "wallet/internal/log"
)

// DefaultIncomeCategory is used by kind-agnostic creates that name no category.
const DefaultIncomeCategory = "Salary"

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	kind, err := core.ParseKind(req.Type)
	if err == nil && kind == "" {
		err = &core.ValidationError{Field: "type", Message: `must be "income" or "expense"`, Err: core.ErrInvalidKind}
	}
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	if req.Date == nil {
		today := core.DateOf(time.Now())
		req.Date = &today
	}

	var t core.Transaction
	switch kind {
	case core.KindIncome:
		if req.CategoryID == nil {
			id, err := s.defaultCategory(r.Context())
			if err != nil {
				writeError(w, r, applog.OpCreate, err)
				return
			}
			req.CategoryID = &id
		}
		in, err := req.asIncome().income()
		if err != nil {
			writeError(w, r, applog.OpCreate, err)
			return
		}
		created, err := s.ledger.CreateIncome(r.Context(), in)
		if err != nil {
			writeError(w, r, applog.OpCreate, err)
			return
		}
		t = s.incomeView(r.Context(), created)
	case core.KindExpense:
		ex, err := req.asExpense().expense()
		if err != nil {
			writeError(w, r, applog.OpCreate, err)
			return
		}
		created, err := s.ledger.CreateExpense(r.Context(), ex)
		if err != nil {
			writeError(w, r, applog.OpCreate, err)
			return
		}
		t = ledger.FromExpense(created)
	}

	s.countWrite()
	NewResponse().Status(http.StatusCreated).
		Message(kind.Label() + " transaction created successfully").
		Data(toTransactionJSON(t)).
		Write(w)
}

// defaultCategory resolves DefaultIncomeCategory by name.
func (s *Server) defaultCategory(ctx context.Context) (int64, error) {
	cats, err := s.reports.ListCategories(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range cats {
		if c.Name == DefaultIncomeCategory {
			return c.ID, nil
		}
	}
	return 0, &core.ValidationError{Field: "category_id", Message: "is required when no " + DefaultIncomeCategory + " category exists", Err: core.ErrEmptyField}
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	if req.Type != "" && req.Type != string(kind) {
		writeError(w, r, applog.OpUpdate, &core.ValidationError{Field: "type", Message: "cannot change the type of a transaction", Err: core.ErrInvalidKind})
		return
	}

	var t core.Transaction
	switch kind {
	case core.KindIncome:
		updated, err := s.ledger.UpdateIncome(r.Context(), id, req.asIncome().patch())
		if err != nil {
			writeError(w, r, applog.OpUpdate, err)
			return
		}
		t = s.incomeView(r.Context(), updated)
	case core.KindExpense:
		updated, err := s.ledger.UpdateExpense(r.Context(), id, req.asExpense().patch())
		if err != nil {
			writeError(w, r, applog.OpUpdate, err)
			return
		}
		t = ledger.FromExpense(updated)
	}

	s.countWrite()
	NewResponse().
		Message(kind.Label() + " transaction updated successfully").
		Data(toTransactionJSON(t)).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	switch kind {
	case core.KindIncome:
		s.deleteIncome(w, r, id)
	case core.KindExpense:
		s.deleteExpense(w, r, id)
	}
}
