package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, id, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": id, "role": role})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func authedContext(authorization string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTSetsIdentity(t *testing.T) {
	v := NewVerifier(testSecret)
	c, _ := authedContext("Bearer " + signToken(t, "u1", "seller"))

	called := false
	err := v.JWT(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	if err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if !called {
		t.Fatal("next handler not called for a valid token")
	}
	if uid, _ := c.Get("user_id").(string); uid != "u1" {
		t.Errorf("user_id = %q, want u1", uid)
	}
	if role, _ := c.Get("role").(string); role != "seller" {
		t.Errorf("role = %q, want seller", role)
	}
}

func TestJWTRejects(t *testing.T) {
	v := NewVerifier(testSecret)
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer scheme", signToken(t, "u1", "user")},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := authedContext(tt.header)
			err := v.JWT(func(c echo.Context) error {
				t.Error("next handler must not run")
				return nil
			})(c)
			if err != nil {
				t.Fatalf("middleware error: %v", err)
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		allowed  []string
		wantNext bool
	}{
		{"matching role", "seller", []string{"seller"}, true},
		{"one of several", "admin", []string{"seller", "admin"}, true},
		{"wrong role", "user", []string{"seller"}, false},
		{"missing role", "", []string{"seller"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := authedContext("")
			if tt.role != "" {
				c.Set("role", tt.role)
			}

			called := false
			err := RequireRoles(tt.allowed...)(func(c echo.Context) error {
				called = true
				return nil
			})(c)
			if err != nil {
				t.Fatalf("middleware error: %v", err)
			}
			if called != tt.wantNext {
				t.Errorf("next called = %v, want %v", called, tt.wantNext)
			}
			if !tt.wantNext && rec.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", rec.Code)
			}
		})
	}
}
