package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"leafmarket.io/internal/audit"
	"leafmarket.io/internal/auth"
	"leafmarket.io/internal/obs"
	"leafmarket.io/internal/session"
)

const maxBodyBytes = 1 << 20

// ReadyProbe reports backend readiness (database ping when configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the auth core.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	users     auth.UserStore
	svc       *auth.Service
	sessions  *session.Issuer
	rotations audit.Store

	cookieSecure bool
	rateBurst    int
	ratePerSec   int
}

// New wires the API. rotations may be nil when no database is configured;
// the rotation history endpoint then reports unavailable.
func New(rp ReadyProbe, version string, users auth.UserStore, svc *auth.Service, sessions *session.Issuer, rotations audit.Store) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		users:      users,
		svc:        svc,
		sessions:   sessions,
		rotations:  rotations,
		rateBurst:  20,
		ratePerSec: 10,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/session", a.handleSession)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)

	a.mux.Handle("/v1/admin/rotations",
		AdminCookieGate(a.requireSession(RequireRole(auth.RoleAdmin)(http.HandlerFunc(a.handleRotations)))))

	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// SetCookieSecure toggles the Secure attribute on session cookies.
func (a *API) SetCookieSecure(secure bool) { a.cookieSecure = secure }

// SetRateLimit tunes the per-IP limiter used on auth endpoints.
func (a *API) SetRateLimit(burst, perSecond int) {
	if burst > 0 {
		a.rateBurst = burst
	}
	if perSecond > 0 {
		a.ratePerSec = perSecond
	}
}

// Handler returns the fully wrapped http.Handler.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = LoggingJSON(h)
	h = obs.Instrument(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, maxBodyBytes)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return h
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "leafmarket-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "leafmarket-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) handleRotations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.rotations == nil {
		writeError(w, r, http.StatusServiceUnavailable, "rotation history unavailable")
		return
	}
	entries, err := a.rotations.List(r.Context(), 100)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []audit.RotationEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rotations": entries})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
