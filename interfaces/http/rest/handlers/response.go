// Package handlers translates HTTP requests into commands and queries.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"diary-backend/pkg/auth"
	pkgerrors "diary-backend/pkg/errors"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// respondJSON writes data with the given status.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return pkgerrors.NewValidationError("invalid request body").WithCause(err)
	}
	return nil
}

// userID returns the authenticated caller.
func userID(r *http.Request) (string, error) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil || user.UserID == "" {
		return "", pkgerrors.NewUnauthorizedError("authentication required")
	}
	return user.UserID, nil
}
