package routes

import (
	"net/http"

	"github.com/templui/babybook/internal/app"
	"github.com/templui/babybook/internal/handler"
	"github.com/templui/babybook/internal/middleware"
)

// SetupRoutes builds the HTTP handler. stop releases the login rate limiter.
func SetupRoutes(app *app.App) (h http.Handler, stop func()) {
	// Handlers
	home := handler.NewHomeHandler(app.BabyService)
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService)
	baby := handler.NewBabyHandler(app.BabyService)
	growth := handler.NewGrowthHandler(app.GrowthService)
	milestone := handler.NewMilestoneHandler(app.MilestoneService)
	media := handler.NewMediaHandler(app.MediaService)
	upload := handler.NewUploadHandler(app.UploadService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)

	// Auth (rate limited per IP)
	loginLimiter := middleware.NewRateLimiter(app.Cfg.LoginRateLimit, app.Cfg.TrustedProxies...)
	mux.HandleFunc("GET /login", auth.LoginPage)
	mux.HandleFunc("POST /api/auth/verify", loginLimiter.Limit(auth.Verify))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)

	// ============================================================================
	// PROTECTED ROUTES (AuthGate)
	// ============================================================================

	mux.HandleFunc("GET /{$}", home.HomePage)

	// Babies
	mux.HandleFunc("GET /api/babies", baby.List)
	mux.HandleFunc("GET /api/baby", baby.Get)
	mux.HandleFunc("POST /api/baby", baby.Create)
	mux.HandleFunc("PUT /api/baby", baby.Update)
	mux.HandleFunc("DELETE /api/baby", baby.Delete)

	// Growth records
	mux.HandleFunc("GET /api/growth-records", growth.List)
	mux.HandleFunc("POST /api/growth-records", growth.Create)
	mux.HandleFunc("GET /api/growth-records/stats", growth.Stats)
	mux.HandleFunc("GET /api/growth-records/{id}", growth.Get)
	mux.HandleFunc("PUT /api/growth-records/{id}", growth.Update)
	mux.HandleFunc("DELETE /api/growth-records/{id}", growth.Delete)

	// Milestones
	mux.HandleFunc("GET /api/milestones", milestone.List)
	mux.HandleFunc("POST /api/milestones", milestone.Create)
	mux.HandleFunc("GET /api/milestones/{id}", milestone.Get)
	mux.HandleFunc("PUT /api/milestones/{id}", milestone.Update)
	mux.HandleFunc("DELETE /api/milestones/{id}", milestone.Delete)

	// Media
	mux.HandleFunc("GET /api/photos", media.List)
	mux.HandleFunc("POST /api/photos", media.Create)
	mux.HandleFunc("POST /api/photos/upload", upload.Upload)
	mux.HandleFunc("POST /api/photos/generate-upload-url", upload.Presign)
	mux.HandleFunc("POST /api/photos/batch", media.Batch)
	mux.HandleFunc("GET /api/photos/{id}", media.Get)
	mux.HandleFunc("PUT /api/photos/{id}", media.Update)
	mux.HandleFunc("DELETE /api/photos/{id}", media.Delete)
	mux.HandleFunc("GET /api/media/{path...}", upload.Proxy)

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	h = middleware.Chain(
		mux,
		middleware.Recovery,
		middleware.Config(app.Cfg), // Needed by SecurityHeaders for the storage origin
		middleware.NonceMiddleware, // Must be before SecurityHeaders
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.Metrics(app.Metrics), // Before AuthGate so 401/303 rejections are counted
		middleware.AuthGate(app.AuthService.Codec()),
		middleware.RoutePattern, // Must wrap the mux directly to see r.Pattern
	)

	return h, loginLimiter.Stop
}
