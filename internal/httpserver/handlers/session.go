package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/readmehub/internal/auth"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login checks the admin credentials, sets the session cookie and returns the
// token for API clients.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}

		token, s, err := d.Sessions.Login(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				d.Logger.Warn("admin login rejected", logger.String("remote_ip", r.RemoteAddr))
				writeError(w, http.StatusUnauthorized, "Invalid username or password.", nil)
				return
			}
			d.Logger.Error("admin login failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Login failed.", nil)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    token,
			Path:     "/",
			Expires:  s.ExpiresAt,
			HttpOnly: true,
			Secure:   d.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		d.Logger.Info("admin logged in", logger.String("session", s.ID))
		writeJSON(w, http.StatusOK, envelope{
			Success: true,
			Message: "Logged in.",
			Data:    loginResponse{Token: token, ExpiresAt: s.ExpiresAt},
		})
	}
}

// Logout revokes the current session and clears the cookie.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required.", nil)
			return
		}
		if err := d.Sessions.Logout(r.Context(), s); err != nil {
			d.Logger.Error("failed to revoke session", logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "Logout failed.", nil)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   d.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out."})
	}
}

// CurrentSession reports the session the request was authenticated with.
func CurrentSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required.", nil)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: s})
	}
}
