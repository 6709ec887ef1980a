package http

import (
	"net/http"

	"wallet/internal/core"
	"wallet/internal/ledger"
	applog "wallet/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	l, err := s.listing(r, core.KindExpense)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	NewResponse().Data(toListingJSON(l, toExpenseJSON)).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	t, err := s.reports.Expense(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().Data(toExpenseJSON(t)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	ex, err := req.expense()
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.createExpense(w, r, ex)
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request, ex core.Expense) {
	created, err := s.ledger.CreateExpense(r.Context(), ex)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.countWrite()
	NewResponse().Status(http.StatusCreated).
		Message("Expense transaction created successfully").
		Data(toExpenseJSON(ledger.FromExpense(created))).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.updateExpense(w, r, id, req)
}

func (s *Server) updateExpense(w http.ResponseWriter, r *http.Request, id int64, req expenseRequest) {
	updated, err := s.ledger.UpdateExpense(r.Context(), id, req.patch())
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.countWrite()
	NewResponse().
		Message("Expense transaction updated successfully").
		Data(toExpenseJSON(ledger.FromExpense(updated))).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.deleteExpense(w, r, id)
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request, id int64) {
	deleted, err := s.ledger.DeleteExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.countWrite()
	NewResponse().
		Message("Expense transaction deleted successfully").
		Data(deletedJSON{ID: deleted.ID, Type: core.KindExpense, Title: deleted.Title, Amount: amount(deleted.Amount)}).
		Write(w)
}
