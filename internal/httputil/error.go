package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/tiebreak/internal/bracket"
	"github.com/AdamBeresnev/tiebreak/internal/store"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	WriteError(w, http.StatusInternalServerError, "Internal Server Error", "")
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusBadRequest, "bad request", msg, "", err)
}

func Unauthorized(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusUnauthorized, "unauthorized", msg, "", err)
}

func Forbidden(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusForbidden, "forbidden", msg, "", err)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusNotFound, "not found", msg, "", err)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusConflict, "conflict", msg, "", err)
}

func clientError(w http.ResponseWriter, status int, kind, msg, code string, err error) {
	if err != nil {
		slog.Warn(kind, "message", msg, "error", err)
	} else {
		slog.Warn(kind, "message", msg)
	}
	WriteError(w, status, msg, code)
}

// StatusFor maps core and store errors to an HTTP status. Unknown errors are a 500.
func StatusFor(err error) int {
	switch bracket.KindOf(err) {
	case bracket.KindPrecondition:
		return http.StatusBadRequest
	case bracket.KindNotFound:
		return http.StatusNotFound
	case bracket.KindConflict:
		return http.StatusConflict
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// FromError writes err with the status StatusFor picks. Core errors carry their message and code
// to the client; anything unexpected is logged and hidden behind a generic 500.
func FromError(w http.ResponseWriter, msg string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		InternalServerError(w, msg, err)
		return
	}

	var coreErr *bracket.Error
	if errors.As(err, &coreErr) {
		clientError(w, status, coreErr.Kind.String(), coreErr.Message, coreErr.Code, err)
		return
	}
	clientError(w, status, http.StatusText(status), msg, "", err)
}
