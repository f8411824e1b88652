package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/logger"
	"github.com/pricewatch/backend/internal/model"
)

type contextKey string

// UserIDKey is the request context key holding the authenticated user's ID.
const UserIDKey contextKey = "userID"

// TokenValidator turns a bearer token into a user ID.
type TokenValidator interface {
	Validate(token string) (uuid.UUID, error)
}

// UserLookup loads users for the admin guard.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Auth authenticates requests from the auth cookie or an Authorization
// bearer header, in that order.
type Auth struct {
	tokens     TokenValidator
	users      UserLookup
	cookieName string
}

func NewAuth(tokens TokenValidator, users UserLookup, cookieName string) *Auth {
	if cookieName == "" {
		cookieName = "jwt"
	}
	return &Auth{tokens: tokens, users: users, cookieName: cookieName}
}

// Middleware rejects requests without a valid token and stores the user ID
// in the request context.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.tokenFromRequest(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "not authorized, no token")
			return
		}

		userID, err := a.tokens.Validate(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "not authorized, token failed")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = logger.WithUserID(ctx, userID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after Middleware. It loads the caller and rejects
// anyone who is not an admin.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := GetUserID(r.Context())
		if userID == uuid.Nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, err := a.users.GetByID(r.Context(), userID)
		if err != nil || !user.IsAdmin {
			respondError(w, http.StatusForbidden, "not authorized as an admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(a.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// GetUserID returns the authenticated user's ID, or uuid.Nil.
func GetUserID(ctx context.Context) uuid.UUID {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

// RequestContext copies chi's request ID into the logging context. It must
// run after middleware.RequestID.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logger.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
