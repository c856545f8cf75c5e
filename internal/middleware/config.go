package middleware

import (
	"net/http"

	"github.com/templui/babybook/internal/config"
	"github.com/templui/babybook/internal/ctxkeys"
	"github.com/templui/babybook/internal/i18n"
)

// Config middleware adds the sanitized app configuration and the negotiated
// language to the request context. Secrets like ACCESS_PASSWORD are excluded.
func Config(cfg *config.Config) func(http.Handler) http.Handler {
	safe := cfg.Sanitized()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), safe)
			ctx = ctxkeys.WithLanguage(ctx, i18n.Tag(r).String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
