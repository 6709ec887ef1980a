package http

import (
	"net/http"

	applog "wallet/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.reports.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryJSON(c))
	}
	NewResponse().Data(map[string]any{"categories": out, "count": len(out)}).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	name, err := req.name()
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	c, err := s.ledger.CreateCategory(r.Context(), name)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.countWrite()
	NewResponse().Status(http.StatusCreated).Message("Category created successfully").Data(toCategoryJSON(c)).Write(w)
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	name, err := req.name()
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	c, err := s.ledger.RenameCategory(r.Context(), id, name)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.countWrite()
	NewResponse().Message("Category updated successfully").Data(toCategoryJSON(c)).Write(w)
}

// handleDeleteCategory removes an unreferenced category; referenced ones
// are rejected with 409.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	c, err := s.ledger.DeleteCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.countWrite()
	NewResponse().Message("Category deleted successfully").Data(toCategoryJSON(c)).Write(w)
}
