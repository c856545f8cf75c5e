package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/templui/babybook/internal/i18n"
)

// Recovery turns a panic in a handler into a JSON 500 and logs the stack.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := wrap(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			slog.Error("panic in handler",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			if rw.written {
				return
			}
			writeJSONError(rw, r, http.StatusInternalServerError, i18n.MsgServerError)
		}()

		next.ServeHTTP(rw, r)
	})
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, key string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   i18n.T(r, key),
	})
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
