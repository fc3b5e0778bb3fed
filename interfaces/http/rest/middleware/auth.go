package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"diary-backend/pkg/auth"
	pkgerrors "diary-backend/pkg/errors"

	"go.uber.org/zap"
)

// Limiter admits or rejects requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Authenticate validates the bearer token and puts the caller into the
// request context. Browsers opening an event stream cannot set headers, so
// the token may also come from the auth_token cookie or the token query
// parameter.
func Authenticate(validator *auth.JWTValidator, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing authentication token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("ip", getClientIP(r)),
					zap.String("path", r.URL.Path),
				)
				errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError(tokenErrorMessage(err)))
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
				Roles:  claims.Roles,
			})
			logger.Debug("Request authenticated",
				zap.String("user_id", claims.UserID),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "Invalid token signature"
	default:
		return "Invalid token"
	}
}

// RateLimit rejects callers over their limit with 429. It runs after
// Authenticate. A limiter error lets the request through.
func RateLimit(limiter Limiter, service string, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
				return
			}

			allowed, err := limiter.Allow(r.Context(), user.UserID)
			if err != nil {
				logger.Error("Rate limiter error", zap.String("service", service), zap.Error(err))
			}
			if !allowed {
				errorHandler.Handle(w, r, pkgerrors.NewRateLimitError(service, nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}

	return r.URL.Query().Get("token")
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
