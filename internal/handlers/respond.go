package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/logging"
)

// maxJSONBody caps JSON request bodies; uploads use their own limit.
const maxJSONBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondMessage(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, errorResponse{Error: message})
}

// respondError maps the access error taxonomy onto HTTP statuses. Anything outside the
// taxonomy is logged and reported as a generic 500.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error("unexpected failure", "error", err)
	}
	respondMessage(ctx, w, status, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, access.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, access.ErrNotOwner):
		return http.StatusForbidden, "you do not own this resource"
	case errors.Is(err, access.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, access.ErrDuplicateUsername), errors.Is(err, access.ErrDuplicateEmail):
		return http.StatusConflict, err.Error()
	case errors.Is(err, access.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// decodeJSON reads a single JSON object into dst. Malformed bodies are reported as
// invalid input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return access.InvalidInput("request body is required")
		}
		return access.InvalidInput("invalid request body: %s", strings.TrimPrefix(err.Error(), "json: "))
	}
	return nil
}

// requireActor returns the authenticated actor or writes a 401.
func requireActor(w http.ResponseWriter, r *http.Request) (access.Actor, bool) {
	actor := access.ActorFromContext(r.Context())
	if err := access.RequireAuthenticated(actor); err != nil {
		respondError(r.Context(), w, err)
		return access.Actor{}, false
	}
	return actor, true
}
