package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/templui/babybook/internal/auth"
	"github.com/templui/babybook/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mw("a"), mw("b"), mw("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "a,b,c" {
		t.Errorf("order = %s, want a,b,c", got)
	}
}

func TestAuthGate(t *testing.T) {
	codec := auth.NewCodec("secret")
	valid := codec.Issue()

	tests := []struct {
		name         string
		method       string
		path         string
		accept       string
		token        string
		wantStatus   int
		wantLocation string
	}{
		{"home without token", http.MethodGet, "/", "", "", http.StatusSeeOther, "/login?from=%2F"},
		{"page keeps path", http.MethodGet, "/photos", "", "", http.StatusSeeOther, "/login?from=%2Fphotos"},
		{"home with token", http.MethodGet, "/", "", valid, http.StatusOK, ""},
		{"forged token", http.MethodGet, "/", "", "9999999999999.deadbeef", http.StatusSeeOther, "/login?from=%2F"},
		{"login is public", http.MethodGet, "/login", "", "", http.StatusOK, ""},
		{"login with token goes home", http.MethodGet, "/login", "", valid, http.StatusSeeOther, "/"},
		{"verify is public", http.MethodPost, "/api/auth/verify", "", "", http.StatusOK, ""},
		{"healthz is public", http.MethodGet, "/healthz", "", "", http.StatusOK, ""},
		{"api json get", http.MethodGet, "/api/babies", "application/json", "", http.StatusUnauthorized, ""},
		{"api post", http.MethodPost, "/api/baby", "", "", http.StatusUnauthorized, ""},
		{"api browser get redirects", http.MethodGet, "/api/media/a.jpg", "image/*", "", http.StatusSeeOther, "/login?from=%2Fapi%2Fmedia%2Fa.jpg"},
		{"api with token", http.MethodDelete, "/api/photos/1", "", valid, http.StatusOK, ""},
	}

	h := AuthGate(codec)(okHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tt.token})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body map[string]any
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode 401 body: %v", err)
				}
				if body["success"] != false || body["error"] == "" {
					t.Errorf("401 body = %v, want success=false and error", body)
				}
			}
		})
	}
}

func TestAuthGate_Disabled(t *testing.T) {
	h := AuthGate(auth.NewCodec(""))(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/baby", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with gate disabled", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("Allow() #%d = false, want true", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("Allow() after burst = true, want false")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("Allow() for other ip = false, want true")
	}

	rl.cleanup(time.Now().Add(time.Hour))
	rl.mu.Lock()
	n := len(rl.visitors)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("visitors after cleanup = %d, want 0", n)
	}
}

func TestRateLimiter_Limit(t *testing.T) {
	rl := NewRateLimiter(1, "172.16.0.0/12")
	defer rl.Stop()

	h := rl.Limit(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/verify", nil)
		req.RemoteAddr = "172.16.0.9:4000"
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")
		rec := httptest.NewRecorder()
		h(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestRateLimiter_IgnoresSpoofedForwardedFor(t *testing.T) {
	rl := NewRateLimiter(3)
	defer rl.Stop()

	h := rl.Limit(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/verify", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.1.%d.%d", i/256, i%256))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.2.0.%d", i))
		rec := httptest.NewRecorder()
		h(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("allowed = %d of 50, want 3", allowed)
	}
}

func TestClientIP(t *testing.T) {
	rl := NewRateLimiter(1, "10.0.0.0/8", "192.168.1.1", "fd00::/8", "not-an-ip")
	defer rl.Stop()

	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"untrusted ignores forwarded for", map[string]string{"X-Forwarded-For": "1.1.1.1"}, "9.9.9.9:1", "9.9.9.9"},
		{"untrusted ignores real ip", map[string]string{"X-Real-IP": "3.3.3.3"}, "9.9.9.9:1", "9.9.9.9"},
		{"trusted forwarded for", map[string]string{"X-Forwarded-For": "1.1.1.1"}, "10.0.0.2:1", "1.1.1.1"},
		{"trusted skips proxy hops", map[string]string{"X-Forwarded-For": "6.6.6.6, 1.1.1.1, 10.0.0.3"}, "10.0.0.2:1", "1.1.1.1"},
		{"trusted single address", map[string]string{"X-Real-IP": " 3.3.3.3 "}, "192.168.1.1:80", "3.3.3.3"},
		{"trusted without headers", nil, "192.168.1.1:80", "192.168.1.1"},
		{"neighbor of single address", map[string]string{"X-Real-IP": "3.3.3.3"}, "192.168.1.2:80", "192.168.1.2"},
		{"trusted ipv6", map[string]string{"X-Forwarded-For": "2001:db8::1"}, "[fd00::1]:443", "2001:db8::1"},
		{"ipv6 remote addr", nil, "[::1]:1234", "::1"},
		{"remote without port", nil, "9.9.9.9", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := rl.clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/babies?lang=en", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Errorf("error = %v, want english server error", body["error"])
	}
}

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.Config{
		S3PublicURL:        "https://media.example.com/my-baby",
		S3ExternalEndpoint: "https://s3.example.com",
	}
	var nonce string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce = GetNonce(r.Context())
	}), Config(cfg), NonceMiddleware, SecurityHeaders)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := rec.Header().Get("Content-Security-Policy")
	if nonce == "" || !strings.Contains(csp, "'nonce-"+nonce+"'") {
		t.Errorf("CSP = %q, want nonce %q", csp, nonce)
	}
	for _, want := range []string{"https://media.example.com", "https://s3.example.com", "frame-ancestors 'none'"} {
		if !strings.Contains(csp, want) {
			t.Errorf("CSP missing %q: %s", want, csp)
		}
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("X-Content-Type-Options not set")
	}
}

type fakeRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (f *fakeRecorder) RecordRequest(route, method string, status int, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = append(f.routes, route+" "+http.StatusText(status))
}

func TestMetrics_UsesPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/photos/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := &fakeRecorder{}
	h := Metrics(rec)(mux)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/photos/abc", nil))

	if len(rec.routes) != 1 || rec.routes[0] != "GET /api/photos/{id} Not Found" {
		t.Errorf("recorded = %v, want pattern with 404", rec.routes)
	}
}

func TestMetrics_CountsGateRejections(t *testing.T) {
	codec := auth.NewCodec("test-secret")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/babies", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := &fakeRecorder{}
	h := Chain(mux, Metrics(rec), AuthGate(codec), RoutePattern)

	// Rejected by the gate, never reaches the mux
	req := httptest.NewRequest(http.MethodGet, "/api/babies", nil)
	req.Header.Set("Accept", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	// Admitted, pattern reported back through the context
	token := codec.Issue()
	req = httptest.NewRequest(http.MethodGet, "/api/babies", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)

	want := []string{" Unauthorized", "GET /api/babies OK"}
	if len(rec.routes) != len(want) {
		t.Fatalf("recorded = %v, want %v", rec.routes, want)
	}
	for i := range want {
		if rec.routes[i] != want[i] {
			t.Errorf("recorded[%d] = %q, want %q", i, rec.routes[i], want[i])
		}
	}
}
