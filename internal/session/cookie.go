package session

import (
	"net/http"
	"strings"
	"time"

	"leafmarket.io/internal/auth"
)

const (
	// CookieName carries the session token for browser sessions.
	CookieName = "session"
	// AdminCookieName mirrors the token for admin users, letting admin
	// middleware gate requests without decoding the primary token.
	AdminCookieName = "admin-trustee-token"

	bearerPrefix = "Bearer "
	queryParam   = "token"
)

// Source identifies where a token was found on a request. The session
// endpoint treats an explicitly presented token (header or query) stricter
// than an ambient cookie.
type Source int

const (
	SourceNone Source = iota
	SourceCookie
	SourceBearer
	SourceQuery
)

// Attach sets the session cookie, plus the admin mirror cookie when role is
// admin. Secure is enabled in production deployments.
func Attach(w http.ResponseWriter, token, role string, ttl time.Duration, secure bool) {
	maxAge := int(ttl / time.Second)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	if role == auth.RoleAdmin {
		http.SetCookie(w, &http.Cookie{
			Name:     AdminCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// Clear expires both session cookies.
func Clear(w http.ResponseWriter, secure bool) {
	for _, name := range []string{CookieName, AdminCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// TokenFromRequest extracts a session token from the request: the session
// cookie first, then an Authorization bearer header, then the token query
// parameter used by the one-time session bootstrap handshake.
func TokenFromRequest(r *http.Request) (string, Source) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, SourceCookie
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" && strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerPrefix)) {
		if token := strings.TrimSpace(header[len(bearerPrefix):]); token != "" {
			return token, SourceBearer
		}
	}
	if token := strings.TrimSpace(r.URL.Query().Get(queryParam)); token != "" {
		return token, SourceQuery
	}
	return "", SourceNone
}

// HasAdminCookie reports whether the request carries the admin mirror
// cookie. It is a cheap pre-filter, not an authentication check.
func HasAdminCookie(r *http.Request) bool {
	c, err := r.Cookie(AdminCookieName)
	return err == nil && c.Value != ""
}
