package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/templui/babybook/internal/ctxkeys"
)

// SecurityHeaders sets the baseline browser protections and a nonce based CSP.
// Requires NonceMiddleware (and Config, for the storage origin) to run first.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

		// Media may be served straight from the bucket and uploads PUT to it.
		storageOrigin := ""
		if cfg := ctxkeys.Config(r.Context()); cfg != nil {
			storageOrigin = origins(cfg.S3PublicURL, cfg.S3ExternalEndpoint)
		}

		scriptSrc := "'self'"
		if nonce := GetNonce(r.Context()); nonce != "" {
			scriptSrc += fmt.Sprintf(" 'nonce-%s'", nonce)
		}

		h.Set("Content-Security-Policy", strings.Join([]string{
			"default-src 'self'",
			"script-src " + scriptSrc,
			"style-src 'self' 'unsafe-inline'",
			strings.TrimSpace("img-src 'self' data: blob: " + storageOrigin),
			strings.TrimSpace("media-src 'self' blob: " + storageOrigin),
			strings.TrimSpace("connect-src 'self' " + storageOrigin),
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		}, "; "))

		next.ServeHTTP(w, r)
	})
}

// origins returns the distinct scheme://host of each URL, space separated.
func origins(raws ...string) string {
	seen := map[string]bool{}
	var out []string
	for _, raw := range raws {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}
		o := u.Scheme + "://" + u.Host
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	return strings.Join(out, " ")
}
