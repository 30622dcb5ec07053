package runtime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestEchoAuthMiddleware_BearerToken(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := SignJWT("user-123", secret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotSub string
	h := EchoAuthMiddleware(secret)(func(c echo.Context) error {
		gotSub, _ = SubjectFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if gotSub != "user-123" {
		t.Fatalf("expected subject user-123, got %q", gotSub)
	}
	if uid, ok := c.Get("user_id").(string); !ok || uid != "user-123" {
		t.Fatalf("expected user_id on echo context, got %v", c.Get("user_id"))
	}
}

func TestEchoAuthMiddleware_AuthCookie(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := SignJWT("user-abc", secret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: tok})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := EchoAuthMiddleware(secret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
}

func TestEchoAuthMiddleware_RejectsMissingAndBadTokens(t *testing.T) {
	secret := []byte("test-secret")
	e := echo.New()
	h := EchoAuthMiddleware(secret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if err := h(c); err == nil {
		t.Fatalf("expected error for missing token")
	}

	expired, err := SignJWT("user-123", secret, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	c = e.NewContext(req, httptest.NewRecorder())
	if err := h(c); err == nil {
		t.Fatalf("expected error for expired token")
	}

	other, err := SignJWT("user-123", []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	c = e.NewContext(req, httptest.NewRecorder())
	if err := h(c); err == nil {
		t.Fatalf("expected error for token signed with wrong secret")
	}
}
