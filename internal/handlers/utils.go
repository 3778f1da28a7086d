package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

type contextKey string

const contextUserIDKey contextKey = "user_id"

var errNoIdentity = errors.New("no identity in context")

// withUserID returns a context carrying the authenticated caller's id.
func withUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, contextUserIDKey, userID)
}

// userIDFromContext resolves the caller's id placed there by WithIdentity.
// Anonymous requests have no id and get errNoIdentity.
func userIDFromContext(ctx context.Context) (int, error) {
	userID, ok := ctx.Value(contextUserIDKey).(int)
	if !ok || userID < 1 {
		return 0, errNoIdentity
	}
	return userID, nil
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
