package httpapi

import (
	"errors"
	"net/http"
	"time"

	"leafmarket.io/internal/audit"
	"leafmarket.io/internal/auth"
	"leafmarket.io/internal/obs"
	"leafmarket.io/internal/session"
)

// invalidCredentialsMsg is the single message returned for every login
// failure cause, so responses leak nothing about which field was wrong.
const invalidCredentialsMsg = "invalid credentials"

type registerRequest struct {
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	Role           string   `json:"role"`
	Name           string   `json:"name"`
	WalletAddress  string   `json:"wallet_address,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
	AgeVerified    bool     `json:"age_verified,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	User      *auth.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.svc.Register(r.Context(), auth.RegisterParams{
		Email:          req.Email,
		Password:       req.Password,
		Role:           req.Role,
		Name:           req.Name,
		WalletAddress:  req.WalletAddress,
		Certifications: req.Certifications,
		AgeVerified:    req.AgeVerified,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "invalid registration")
		case errors.Is(err, auth.ErrConflict):
			writeError(w, r, http.StatusConflict, "email already registered")
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	token, expiresAt, err := a.sessions.Issue(user)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	session.Attach(w, token, user.Role, a.sessions.TTL(), a.cookieSecure)

	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": user.ID,
		"role":    user.Role,
	})
	writeJSON(w, http.StatusCreated, authResponse{
		User:      user.Public(),
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.svc.Login(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// The internal reason is logged for operators; the response
			// stays uniform across every failure cause.
			reason := "unknown"
			var loginErr *auth.LoginError
			if errors.As(err, &loginErr) {
				reason = loginErr.Reason
			}
			_ = audit.LogEvent(r.Context(), "auth.login.denied", map[string]any{
				"reason": reason,
			})
			obs.RecordLogin("failure")
			writeError(w, r, http.StatusUnauthorized, invalidCredentialsMsg)
			return
		}
		obs.RecordLogin("error")
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	token, expiresAt, err := a.sessions.Issue(user)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	session.Attach(w, token, user.Role, a.sessions.TTL(), a.cookieSecure)

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": user.ID,
		"role":    user.Role,
	})
	obs.RecordLogin("success")
	writeJSON(w, http.StatusOK, authResponse{
		User:      user.Public(),
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// handleSession reports the current session. A missing or stale cookie is
// an anonymous session, not an error; only an explicitly presented token
// (bearer header or bootstrap query parameter) fails loudly.
func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	token, source := session.TokenFromRequest(r)
	if source == session.SourceNone {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}

	claims, err := a.sessions.Verify(token)
	if err != nil {
		obs.RecordSessionVerification("failure")
		if source == session.SourceCookie {
			writeJSON(w, http.StatusOK, map[string]any{"user": nil})
			return
		}
		writeError(w, r, http.StatusUnauthorized, "invalid session token")
		return
	}

	user, err := a.users.Find(r.Context(), claims.Subject)
	if err != nil || user.Status != auth.StatusActive {
		obs.RecordSessionVerification("failure")
		if source == session.SourceCookie {
			writeJSON(w, http.StatusOK, map[string]any{"user": nil})
			return
		}
		writeError(w, r, http.StatusUnauthorized, "invalid session token")
		return
	}

	obs.RecordSessionVerification("success")
	writeJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	session.Clear(w, a.cookieSecure)
	w.WriteHeader(http.StatusNoContent)
}
