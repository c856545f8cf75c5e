package service

import (
	"net/http"
	"strings"
	"time"

	"github.com/templui/babybook/internal/auth"
)

// AuthService handles the shared-password login and the session cookie.
type AuthService struct {
	password     string
	codec        *auth.Codec
	isProduction bool
}

// NewAuthService signs tokens with the configured ACCESS_PASSWORD value itself,
// so changing the password logs every device out.
func NewAuthService(password string, ttl time.Duration, isProduction bool, opts ...auth.Option) *AuthService {
	opts = append([]auth.Option{auth.WithTTL(ttl)}, opts...)
	return &AuthService{
		password:     password,
		codec:        auth.NewCodec(password, opts...),
		isProduction: isProduction,
	}
}

func (s *AuthService) Enabled() bool {
	return s.codec.Enabled()
}

func (s *AuthService) Codec() *auth.Codec {
	return s.codec
}

// Login checks the password and returns a fresh session token.
// With no password configured it returns an empty token and no error.
func (s *AuthService) Login(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrPasswordRequired
	}
	if !s.Enabled() {
		return "", nil
	}
	if !auth.CheckPassword(s.password, password) {
		return "", ErrInvalidPassword
	}
	return s.codec.Issue(), nil
}

func (s *AuthService) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		MaxAge:   int(s.codec.TTL().Seconds()),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
