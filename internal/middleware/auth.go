// Package middleware provides the HTTP middleware chain: CORS, metrics,
// rate limiting and JWT authentication.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/commercekit/service-layer/internal/app/domain/session"
	"github.com/commercekit/service-layer/pkg/logger"
)

// Claims are the JWT claims carried by issued tokens.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type sessionKey struct{}

// WithSession stores the caller identity in the context.
func WithSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the caller identity, anonymous when unauthenticated.
func SessionFrom(ctx context.Context) session.Session {
	sess, _ := ctx.Value(sessionKey{}).(session.Session)
	return sess
}

// Auth validates bearer tokens and attaches the session to the request
// context. Requests without an Authorization header pass through anonymous;
// per-route role checks decide whether that is acceptable.
type Auth struct {
	secret []byte
	log    *logger.Logger
}

// NewAuth creates the authentication middleware with an HS256 secret.
func NewAuth(secret string, log *logger.Logger) *Auth {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Auth{secret: []byte(secret), log: log}
}

// Handler returns the middleware handler.
func (a *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeAuthError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		claims, err := a.parseToken(parts[1])
		if err != nil {
			a.log.WithError(err).Warn("token validation failed")
			writeAuthError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := WithSession(r.Context(), session.Session{UserID: claims.UserID, Role: claims.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Token issues a signed token for the session, mainly for tooling and tests.
func (a *Auth) Token(sess session.Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: sess.UserID,
		Role:   sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Auth) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// RequireRoles guards a handler: the session must be authenticated and carry
// one of the roles. With allowAnonymous, unauthenticated requests pass (used
// by signup).
func RequireRoles(roles []string, allowAnonymous bool, next http.HandlerFunc) http.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r.Context())
		if sess.Anonymous() {
			if allowAnonymous {
				next(w, r)
				return
			}
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !allowed[sess.Role] {
			writeAuthError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next(w, r)
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	name := "InvalidCredentialsException"
	switch status {
	case http.StatusForbidden:
		name = "InvalidPermissionsException"
	case http.StatusTooManyRequests:
		name = "RateLimitException"
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"name": name, "code": status, "message": message})
}
