package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/templui/babybook/internal/auth"
	"github.com/templui/babybook/internal/i18n"
)

// AuthGate enforces the shared-password session on every request.
// The policy lives in auth.Decide; this only carries out the decision.
func AuthGate(codec *auth.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if cookie, err := r.Cookie(auth.CookieName); err == nil {
				token = cookie.Value
			}

			switch auth.Decide(r.URL.Path, token, wantsJSON(r), codec) {
			case auth.Allow:
				next.ServeHTTP(w, r)
			case auth.RedirectHome:
				http.Redirect(w, r, "/", http.StatusSeeOther)
			case auth.Unauthorized:
				writeJSONError(w, r, http.StatusUnauthorized, i18n.MsgUnauthorized)
			default:
				slog.Debug("redirecting to login", "path", r.URL.Path)
				http.Redirect(w, r, auth.LoginPath+"?from="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
			}
		})
	}
}

// wantsJSON reports whether an unauthenticated caller should get 401 instead of a redirect.
func wantsJSON(r *http.Request) bool {
	if !strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
