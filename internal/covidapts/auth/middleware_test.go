package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret"

func signClaims(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func claimsFor(role Role, expiresAt time.Time) Claims {
	return Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "test-user",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
}

func TestMiddleware(t *testing.T) {
	rules := []Rule{
		{Path: "/companies", Roles: CompanyRoles},
		{Path: "/companies/edit/", Roles: CompanyRoles},
		{Method: http.MethodGet, Path: "/statistics", Roles: []Role{RoleAdmin}},
	}
	valid := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		method     string
		path       string
		header     string
		wantStatus int
		wantUser   bool
	}{
		{
			name:       "public path no token",
			method:     http.MethodGet,
			path:       "/companies/extra-details",
			wantStatus: http.StatusOK,
		},
		{
			name:       "protected path missing header",
			method:     http.MethodGet,
			path:       "/companies",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "protected path missing bearer prefix",
			method:     http.MethodGet,
			path:       "/companies",
			header:     signClaims(t, testSecret, claimsFor(RoleGuide, valid)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "protected prefix with valid role",
			method:     http.MethodPost,
			path:       "/companies/edit/abc",
			header:     "Bearer " + signClaims(t, testSecret, claimsFor(RoleJanitor, valid)),
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name:       "wrong secret",
			method:     http.MethodGet,
			path:       "/companies",
			header:     "Bearer " + signClaims(t, "wrong-secret", claimsFor(RoleAdmin, valid)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			method:     http.MethodGet,
			path:       "/companies",
			header:     "Bearer " + signClaims(t, testSecret, claimsFor(RoleAdmin, time.Now().Add(-time.Hour))),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "admin only path with guide role",
			method:     http.MethodGet,
			path:       "/statistics",
			header:     "Bearer " + signClaims(t, testSecret, claimsFor(RoleGuide, valid)),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin only path with admin role",
			method:     http.MethodGet,
			path:       "/statistics",
			header:     "Bearer " + signClaims(t, testSecret, claimsFor(RoleAdmin, valid)),
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name:       "token without role",
			method:     http.MethodGet,
			path:       "/companies",
			header:     "Bearer " + signClaims(t, testSecret, claimsFor("", valid)),
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sawUser bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				claims, ok := UserFromContext(r.Context())
				sawUser = ok && claims.Subject == "test-user"
				w.WriteHeader(http.StatusOK)
			})
			handler := NewMiddleware(testSecret, zaptest.NewLogger(t), rules...).Wrap(next)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if sawUser != tt.wantUser {
				t.Errorf("expected user in context %v, got %v", tt.wantUser, sawUser)
			}
		})
	}
}

func TestRuleMatches(t *testing.T) {
	tests := []struct {
		rule   Rule
		method string
		path   string
		want   bool
	}{
		{Rule{Path: "/companies"}, http.MethodGet, "/companies", true},
		{Rule{Path: "/companies"}, http.MethodGet, "/companies/not-found", false},
		{Rule{Path: "/companies/details/"}, http.MethodGet, "/companies/details/1", true},
		{Rule{Method: http.MethodPost, Path: "/companies/create"}, http.MethodGet, "/companies/create", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if got := tt.rule.matches(req); got != tt.want {
			t.Errorf("%+v matches %s %s = %v, want %v", tt.rule, tt.method, tt.path, got, tt.want)
		}
	}
}
