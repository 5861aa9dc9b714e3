package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leafmarket.io/internal/auth"
)

func findCookie(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	res := rr.Result()
	defer res.Body.Close()
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAttachSetsSessionCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	Attach(rr, "token-value", auth.RoleCustomer, DefaultTTL, true)

	c := findCookie(t, rr, CookieName)
	if c == nil {
		t.Fatalf("session cookie not set")
	}
	if c.Value != "token-value" || c.Path != "/" {
		t.Fatalf("unexpected cookie: %+v", c)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie attributes wrong: %+v", c)
	}
	if c.MaxAge != int(DefaultTTL/time.Second) {
		t.Fatalf("unexpected max-age: %d", c.MaxAge)
	}
	if admin := findCookie(t, rr, AdminCookieName); admin != nil {
		t.Fatalf("non-admin login must not set the admin cookie")
	}
}

func TestAttachMirrorsAdminCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	Attach(rr, "token-value", auth.RoleAdmin, DefaultTTL, false)

	if c := findCookie(t, rr, CookieName); c == nil {
		t.Fatalf("session cookie not set")
	}
	admin := findCookie(t, rr, AdminCookieName)
	if admin == nil || admin.Value != "token-value" {
		t.Fatalf("admin mirror cookie missing or wrong: %+v", admin)
	}
}

func TestClearExpiresCookies(t *testing.T) {
	rr := httptest.NewRecorder()
	Clear(rr, false)

	for _, name := range []string{CookieName, AdminCookieName} {
		c := findCookie(t, rr, name)
		if c == nil {
			t.Fatalf("expected %s cookie to be cleared", name)
		}
		if c.MaxAge >= 0 || c.Value != "" {
			t.Fatalf("cookie %s not expired: %+v", name, c)
		}
	}
}

func TestTokenFromRequestPrecedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/session?token=from-query", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})

	if token, source := TokenFromRequest(req); token != "from-cookie" || source != SourceCookie {
		t.Fatalf("expected cookie to win, got %q (%d)", token, source)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/auth/session?token=from-query", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	if token, source := TokenFromRequest(req); token != "from-header" || source != SourceBearer {
		t.Fatalf("expected bearer header next, got %q (%d)", token, source)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/auth/session?token=from-query", nil)
	if token, source := TokenFromRequest(req); token != "from-query" || source != SourceQuery {
		t.Fatalf("expected query parameter fallback, got %q (%d)", token, source)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/auth/session", nil)
	if token, source := TokenFromRequest(req); token != "" || source != SourceNone {
		t.Fatalf("expected no token, got %q (%d)", token, source)
	}
}

func TestHasAdminCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/rotations", nil)
	if HasAdminCookie(req) {
		t.Fatalf("no cookie set, expected false")
	}
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "tok"})
	if !HasAdminCookie(req) {
		t.Fatalf("expected admin cookie to be detected")
	}
}
