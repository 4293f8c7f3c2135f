package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signedToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, header string) (echo.Context, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := Auth("secret")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return c, called, err
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 http error, got %v", err)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
		"user_id": "7d2c0d8e-3b8f-4b43-9a43-3f3c2d1f6a10",
		"role":    "client",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	c, called, err := runAuth(t, "Bearer "+token)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if c.Get(ContextUserID) != "7d2c0d8e-3b8f-4b43-9a43-3f3c2d1f6a10" {
		t.Fatalf("user_id not set")
	}
	if c.Get(ContextRole) != "client" {
		t.Fatalf("role not set")
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	_, called, err := runAuth(t, "")
	assertUnauthorized(t, err)
	if called {
		t.Fatalf("next should not be called")
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	for _, header := range []string{"Token abc", "Bearer", "Bearer   "} {
		_, called, err := runAuth(t, header)
		assertUnauthorized(t, err)
		if called {
			t.Fatalf("next called for %q", header)
		}
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "u", "role": "admin"})
	_, _, err := runAuth(t, "Bearer "+token)
	assertUnauthorized(t, err)
}

func TestAuthMiddleware_Expired(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
		"user_id": "u",
		"role":    "admin",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	_, _, err := runAuth(t, "Bearer "+token)
	assertUnauthorized(t, err)
}

func TestAuthMiddleware_RejectsOtherAlgorithms(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodHS512, []byte("secret"), jwt.MapClaims{"user_id": "u", "role": "admin"})
	_, _, err := runAuth(t, "Bearer "+token)
	assertUnauthorized(t, err)
}

func TestAuthMiddleware_MissingClaims(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"role": "admin"})
	_, called, err := runAuth(t, "Bearer "+token)
	assertUnauthorized(t, err)
	if called {
		t.Fatalf("next should not be called")
	}
}
