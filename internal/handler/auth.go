package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/service"
	"github.com/templui/babybook/internal/ui"
	"github.com/templui/babybook/internal/ui/pages"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type verifyRequest struct {
	Password string `json:"password"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.Login(r.URL.Query().Get("from")))
}

// Verify checks the shared password and sets the session cookie.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Message: i18n.T(r, i18n.MsgInvalidBody)})
		return
	}

	token, err := h.authService.Login(req.Password)
	switch {
	case errors.Is(err, service.ErrPasswordRequired):
		writeJSON(w, http.StatusBadRequest, verifyResponse{Message: i18n.T(r, i18n.MsgPasswordRequired)})
		return
	case errors.Is(err, service.ErrInvalidPassword):
		slog.Warn("login failed", "remote_addr", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, verifyResponse{Message: i18n.T(r, i18n.MsgPasswordIncorrect)})
		return
	case err != nil:
		slog.Error("login error", "error", err)
		writeJSON(w, http.StatusInternalServerError, verifyResponse{Message: i18n.T(r, i18n.MsgServerError)})
		return
	}

	if token != "" {
		h.authService.SetCookie(w, token)
	}
	writeJSON(w, http.StatusOK, verifyResponse{Success: true})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearCookie(w)

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, verifyResponse{Success: true})
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
