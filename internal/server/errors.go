package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nhle/focusflow/internal/auth"
	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/store"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// errBadRequest marks a malformed request body or parameter.
var errBadRequest = errors.New("malformed request")

var authKinds = []struct {
	err    error
	kind   string
	status int
}{
	{auth.ErrInvalidEmail, "InvalidEmail", http.StatusUnprocessableEntity},
	{auth.ErrWeakPassword, "WeakPassword", http.StatusUnprocessableEntity},
	{auth.ErrSameEmail, "SameEmail", http.StatusUnprocessableEntity},
	{auth.ErrEmptyName, "EmptyName", http.StatusUnprocessableEntity},
	{auth.ErrEmailInUse, "EmailInUse", http.StatusConflict},
	{auth.ErrInvalidCredentials, "InvalidCredentials", http.StatusUnauthorized},
	{auth.ErrInvalidToken, "InvalidToken", http.StatusUnauthorized},
	{auth.ErrEmailNotVerified, "EmailNotVerified", http.StatusForbidden},
}

// classify maps an error to its HTTP status and kind.
func classify(err error) (int, string) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, string(verr.Kind)
	}
	for _, k := range authKinds {
		if errors.Is(err, k.err) {
			return k.status, k.kind
		}
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "BadRequest"
	}
	return http.StatusInternalServerError, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// logAttrs is shared by the access log.
func logAttrs(r *http.Request, status int) []any {
	return []any{slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Int("status", status)}
}
