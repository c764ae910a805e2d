package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"

	"github.com/gorilla/mux"
)

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps an error kind onto the HTTP status the caller sees.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindTransient:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders a coordinator error. Integrity and transient details stay in the server log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	switch {
	case errors.Is(err, domain.ErrIntegrity):
		logger.ErrorContext(r.Context(), "Data integrity violation", "method", r.Method, "path", r.URL.Path, "error", err)
	case status >= http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error:     domain.PublicMessage(err),
		Kind:      string(kind),
		Retryable: domain.IsRetryable(err),
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("invalid request body")
	}
	return nil
}

func pathID(r *http.Request) (int32, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("invalid id")
	}
	return int32(id), nil
}

func queryInt32(r *http.Request, name string) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, domain.NewValidationError("invalid " + name)
	}
	return int32(v), nil
}

func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, domain.NewValidationError(name + " is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError(name + " must be RFC3339")
	}
	return t, nil
}

func mustActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.ErrPermissionDenied)
		return domain.Actor{}, false
	}
	return a, true
}
