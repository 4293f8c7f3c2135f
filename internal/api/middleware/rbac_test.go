package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRBAC_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextRole, "admin")

	called := false
	handler := RBAC("admin", "client")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_Forbids(t *testing.T) {
	for _, role := range []string{"admin", ""} {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if role != "" {
			c.Set(ContextRole, role)
		}

		called := false
		err := RBAC("client")(func(c echo.Context) error {
			called = true
			return nil
		})(c)

		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusForbidden {
			t.Fatalf("role %q: expected 403, got %v", role, err)
		}
		if called {
			t.Fatalf("role %q: next handler should not be called", role)
		}
	}
}
