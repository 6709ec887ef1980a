package http

import (
	"context"
	"net/http"

	"wallet/internal/core"
	"wallet/internal/ledger"
	applog "wallet/internal/log"
)

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	l, err := s.listing(r, core.KindIncome)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	NewResponse().Data(toListingJSON(l, toIncomeJSON)).Write(w)
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	t, err := s.reports.Income(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().Data(toIncomeJSON(t)).Write(w)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	in, err := req.income()
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.createIncome(w, r, in)
}

func (s *Server) createIncome(w http.ResponseWriter, r *http.Request, in core.Income) {
	created, err := s.ledger.CreateIncome(r.Context(), in)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.countWrite()
	NewResponse().Status(http.StatusCreated).
		Message("Income transaction created successfully").
		Data(toIncomeJSON(s.incomeView(r.Context(), created))).
		Write(w)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.updateIncome(w, r, id, req)
}

func (s *Server) updateIncome(w http.ResponseWriter, r *http.Request, id int64, req incomeRequest) {
	updated, err := s.ledger.UpdateIncome(r.Context(), id, req.patch())
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.countWrite()
	NewResponse().
		Message("Income transaction updated successfully").
		Data(toIncomeJSON(s.incomeView(r.Context(), updated))).
		Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.deleteIncome(w, r, id)
}

func (s *Server) deleteIncome(w http.ResponseWriter, r *http.Request, id int64) {
	deleted, err := s.ledger.DeleteIncome(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.countWrite()
	NewResponse().
		Message("Income transaction deleted successfully").
		Data(deletedJSON{ID: deleted.ID, Type: core.KindIncome, Title: deleted.Source, Amount: amount(deleted.Amount)}).
		Write(w)
}

// incomeView resolves the category of a freshly written income. The write
// already succeeded, so a failed lookup degrades to the Unknown label.
func (s *Server) incomeView(ctx context.Context, in core.Income) core.Transaction {
	t, err := s.reports.Income(ctx, in.ID)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to reload written income",
			applog.FieldRecordID, in.ID, applog.FieldError, err)
		id := in.CategoryID
		return ledger.FromIncome(in, core.CategoryRef{ID: &id, Name: core.UnknownCategoryName})
	}
	return t
}
