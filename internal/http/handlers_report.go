package http

import (
	"net/http"
	"strconv"

	"wallet/internal/core"
	"wallet/internal/export"
	applog "wallet/internal/log"
	"wallet/internal/report"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.reports.DashboardSummary(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().Data(toDashboardJSON(d)).Write(w)
}

// listing runs a filtered, optionally paginated query, with kind forced
// when non-empty.
func (s *Server) listing(r *http.Request, kind core.Kind) (report.Listing, error) {
	q := r.URL.Query()
	criteria, err := ParseCriteria(q)
	if err != nil {
		return report.Listing{}, err
	}
	if kind != "" {
		criteria.Kind = kind
	}
	page, size, err := ParsePagination(q, s.pageSize)
	if err != nil {
		return report.Listing{}, err
	}
	return s.reports.ListTransactions(r.Context(), report.Query{Criteria: criteria, Page: page, PageSize: size})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	l, err := s.listing(r, "")
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	NewResponse().Data(toListingJSON(l, toTransactionJSON)).Write(w)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := core.ParseKind(q.Get("type"))
	if err != nil {
		writeError(w, r, applog.OpSearch, err)
		return
	}
	limit, err := ParseLimit(q, report.DefaultSearchLimit)
	if err != nil {
		writeError(w, r, applog.OpSearch, err)
		return
	}
	query := sanitizeInput(q.Get("q"))
	found, err := s.reports.Search(r.Context(), query, kind, limit)
	if err != nil {
		writeError(w, r, applog.OpSearch, err)
		return
	}
	NewResponse().Data(map[string]any{
		"query":   query,
		"results": toTransactionsJSON(found),
		"count":   len(found),
	}).Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	criteria, err := ParseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	rows, err := s.reports.Breakdown(r.Context(), criteria)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().Data(map[string]any{"categories": toBreakdownJSON(rows)}).Write(w)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	criteria, err := ParseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	rows, err := s.reports.Monthly(r.Context(), criteria)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().Data(map[string]any{"months": toMonthsJSON(rows)}).Write(w)
}

// handleExport streams the filtered feed as a CSV attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	criteria, err := ParseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpExport, err)
		return
	}
	body, err := s.reports.Export(r.Context(), criteria)
	if err != nil {
		writeError(w, r, applog.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(criteria.Kind)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
