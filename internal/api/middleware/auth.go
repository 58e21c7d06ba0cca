package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/access"
	"github.com/hugh/go-attend/internal/api/dto"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/auth"
	"github.com/hugh/go-attend/internal/database/models"
)

type contextKey string

const callerKey contextKey = "caller"

// UserLoader fetches the account a token was issued for, with its Role and
// Company preloaded.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Auth authenticates the request and stores the caller in the context.
// Tokens are read from the Authorization header, then the token cookie, then
// X-Auth-Token. The token only names the user; role, company and the active
// flag come from the users table on every request.
func Auth(tokens auth.TokenValidator, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				unauthorized(w, "authentication credentials were not provided")
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				unauthorized(w, "user not found")
				return
			case err != nil:
				writeAuthError(w, http.StatusInternalServerError, "internal server error")
				return
			case !user.IsActive:
				writeAuthError(w, http.StatusForbidden, "account is inactive")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), access.CallerFromUser(user))))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get("X-Auth-Token")
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeAuthError(w, http.StatusUnauthorized, msg)
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg})
}

func WithCaller(ctx context.Context, c access.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// GetCaller returns the authenticated caller, or the anonymous caller when
// the request did not pass through Auth.
func GetCaller(ctx context.Context) access.Caller {
	if c, ok := ctx.Value(callerKey).(access.Caller); ok {
		return c
	}
	return access.Caller{}
}
