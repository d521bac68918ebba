// Package middleware provides the HTTP middleware chain for the public API.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/localpulse/platform/pkg/logger"
)

type contextKey string

const (
	tenantIDKey contextKey = "tenant_id"
	roleKey     contextKey = "role"
)

// Claims are the JWT claims the API accepts.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates HMAC-signed bearer tokens.
type AuthMiddleware struct {
	secret     []byte
	log        *logger.Logger
	skipPaths  map[string]bool
	skipPrefix []string
}

// NewAuthMiddleware creates an authentication middleware. skipPaths are exact
// matches; entries ending in "/" match as prefixes (for public trackers).
func NewAuthMiddleware(secret []byte, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	skip := make(map[string]bool)
	var prefixes []string
	for _, path := range skipPaths {
		if strings.HasSuffix(path, "/") {
			prefixes = append(prefixes, path)
			continue
		}
		skip[path] = true
	}
	return &AuthMiddleware{secret: secret, log: log, skipPaths: skip, skipPrefix: prefixes}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "missing Authorization header")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(w, "invalid Authorization header format")
			return
		}

		claims, err := m.validateToken(parts[1])
		if err != nil {
			m.log.WithError(err).WithField("path", r.URL.Path).Warn("token validation failed")
			unauthorized(w, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), tenantIDKey, claims.TenantID)
		if claims.Role != "" {
			ctx = context.WithValue(ctx, roleKey, claims.Role)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) skip(path string) bool {
	if m.skipPaths[path] {
		return true
	}
	for _, prefix := range m.skipPrefix {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (m *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
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

// TenantID returns the authenticated tenant from the request context.
func TenantID(ctx context.Context) string {
	id, _ := ctx.Value(tenantIDKey).(string)
	return id
}

// Role returns the authenticated role from the request context.
func Role(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
