package web

// errors.go turns errors into JSON responses.
//
// The technical error is logged with the request id; the client gets the
// user message from core.MapError, so support can correlate the code shown
// to a user with the log entry.

import (
	"context"
	"errors"
	"net/http"

	"github.com/willbda/happy-to-have-lived-sub002/internal/core"
	"github.com/willbda/happy-to-have-lived-sub002/internal/logging"
	"github.com/willbda/happy-to-have-lived-sub002/internal/structured"
	"github.com/willbda/happy-to-have-lived-sub002/internal/tabular"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errBadRequest marks request-shape problems found by the handlers.
var errBadRequest = errors.New("bad request")

// respondError logs err and writes its user message with the status that
// fits it.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func statusFor(err error) int {
	var (
		mapping  *core.MappingError
		syntax   *tabular.SyntaxError
		count    *tabular.FieldCountError
		field    *structured.FieldError
		maxBytes *http.MaxBytesError
	)
	switch {
	case errors.Is(err, core.ErrUnknownKind), errors.Is(err, core.ErrPreviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadRequest), errors.Is(err, core.ErrUnknownRow):
		return http.StatusBadRequest
	case errors.As(err, &mapping), errors.As(err, &syntax), errors.As(err, &count),
		errors.As(err, &field), errors.Is(err, tabular.ErrNoHeader):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
