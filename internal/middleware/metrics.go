package middleware

import (
	"context"
	"net/http"
	"time"
)

// RequestRecorder is implemented by metrics.Collector.
type RequestRecorder interface {
	RecordRequest(route, method string, status int, d time.Duration)
}

type patternKey struct{}

// Metrics records each request under its ServeMux pattern. It sits outside
// AuthGate so rejected requests are counted; RoutePattern must wrap the mux
// to report the matched pattern back, since the mux only sets r.Pattern on
// the request it is handed.
func Metrics(rec RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)
			pattern := new(string)
			next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), patternKey{}, pattern)))
			if *pattern == "" {
				*pattern = r.Pattern
			}
			rec.RecordRequest(*pattern, r.Method, rw.statusCode, time.Since(start))
		})
	}
}

// RoutePattern copies the pattern the mux matched into the slot Metrics left in the context.
func RoutePattern(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if slot, ok := r.Context().Value(patternKey{}).(*string); ok {
			*slot = r.Pattern
		}
	})
}
