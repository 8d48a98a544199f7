// Package auth issues and validates JWTs and enforces role-based access on
// HTTP routes.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"
)

type contextKey string

const userContextKey contextKey = "user"

// Rule restricts requests to Roles. An empty Method matches every method.
// A Path ending in "/" matches by prefix, any other Path must match exactly.
type Rule struct {
	Method string
	Path   string
	Roles  []Role
}

func (r Rule) matches(req *http.Request) bool {
	if r.Method != "" && r.Method != req.Method {
		return false
	}
	if strings.HasSuffix(r.Path, "/") {
		return strings.HasPrefix(req.URL.Path, r.Path)
	}
	return req.URL.Path == r.Path
}

// Middleware authenticates requests that match one of its rules.
type Middleware struct {
	jwtSecret string
	rules     []Rule
	logger    *zap.Logger
}

// NewMiddleware creates a Middleware. Requests matching no rule pass through.
func NewMiddleware(jwtSecret string, logger *zap.Logger, rules ...Rule) *Middleware {
	return &Middleware{
		jwtSecret: jwtSecret,
		rules:     rules,
		logger:    logger.Named("auth"),
	}
}

func (m *Middleware) ruleFor(r *http.Request) (Rule, bool) {
	for _, rule := range m.rules {
		if rule.matches(r) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Wrap returns next guarded by the middleware's rules. Missing or invalid
// tokens get 401, a valid token with a role outside the rule gets 403.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule, ok := m.ruleFor(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := extractTokenFromHeader(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := validateToken(tokenString, m.jwtSecret)
		if err != nil {
			m.logger.Debug("rejected token", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if !slices.Contains(rule.Roles, claims.Role) {
			m.logger.Info("role not allowed",
				zap.String("path", r.URL.Path),
				zap.String("user", claims.Subject),
				zap.String("role", string(claims.Role)),
			)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// ContextWithClaims stores claims for UserFromContext.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// UserFromContext returns the claims of the authenticated caller, if any.
func UserFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(userContextKey).(*Claims)
	return claims, ok
}

func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("invalid authorization format: missing Bearer prefix")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		return "", fmt.Errorf("invalid authorization format: empty token")
	}

	return tokenString, nil
}
