// Package middleware provides the HTTP middleware chain: authentication,
// CORS, rate limiting and request tracing.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	svcerr "github.com/Integral-ind/integral-backend/internal/errors"
	"github.com/Integral-ind/integral-backend/internal/httputil"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	emailKey  contextKey = "email"
	tokenKey  contextKey = "access_token"
)

// Claims are the platform-issued JWT claims we care about. The subject is
// the platform user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies platform access tokens (HS256, shared secret).
type AuthMiddleware struct {
	secret    []byte
	log       *logger.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates the auth middleware. Requests to skipPaths
// pass through unauthenticated.
func NewAuthMiddleware(jwtSecret string, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return &AuthMiddleware{
		secret:    []byte(jwtSecret),
		log:       log,
		skipPaths: skip,
	}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, r, svcerr.Unauthorized("missing Authorization header"))
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			m.respondError(w, r, svcerr.Unauthorized("Authorization header must use Bearer scheme"))
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			m.log.WithError(err).WithField("path", r.URL.Path).Debug("token rejected")
			m.respondError(w, r, svcerr.InvalidToken(err))
			return
		}
		if claims.Subject == "" {
			m.respondError(w, r, svcerr.Unauthorized("token has no subject"))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		ctx = context.WithValue(ctx, emailKey, claims.Email)
		ctx = context.WithValue(ctx, tokenKey, tokenString)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err *svcerr.ServiceError) {
	httputil.WriteErrorResponse(w, r, err.HTTPStatus, string(err.Code), err.Message, nil)
}

// GetUserID returns the authenticated user id, or "".
func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// GetEmail returns the authenticated user's email, or "".
func GetEmail(ctx context.Context) string {
	v, _ := ctx.Value(emailKey).(string)
	return v
}

// GetAccessToken returns the raw bearer token so downstream calls can
// forward it to the platform for row-level security.
func GetAccessToken(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}
