package http

import (
	"errors"
	"net/http"

	"wallet/internal/core"
	applog "wallet/internal/log"
)

// classify maps a domain error onto its error response and a log error
// type. Messages of 5xx responses never carry internals.
func classify(err error) (*ResponseBuilder, string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			return BadRequestError(verr.Error()), applog.ErrorTypeValidation
		}
		return BadRequestError(err.Error()), applog.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error()), applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrCategoryInUse), errors.Is(err, core.ErrDuplicate):
		return ConflictError(err.Error()), applog.ErrorTypeConflict
	case errors.Is(err, core.ErrMissingCategory):
		return InternalServerError("ledger data references a missing category"), applog.ErrorTypeIntegrity
	case errors.Is(err, core.ErrStoreUnavailable):
		return InternalServerError("storage unavailable"), applog.ErrorTypeDatabase
	default:
		return InternalServerError("internal server error"), applog.ErrorTypeInternal
	}
}

// writeError logs err with the request logger and writes its envelope.
// Client errors log at warn, server errors at error.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp, errType := classify(err)
	code := resp.statusCode
	logger := applog.FromContext(r.Context())
	args := []any{
		applog.FieldOperation, op,
		applog.FieldPath, r.URL.Path,
		applog.FieldStatusCode, code,
		applog.FieldErrorType, errType,
		applog.FieldError, err,
	}
	if code >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", args...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", args...)
	}
	resp.Write(w)
}
