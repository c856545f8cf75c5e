package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName     string
	AppEnv      string
	Port        string
	MetricsAddr string // Optional: separate listener for /metrics

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Access
	AccessPassword string        // Plain text or bcrypt hash; empty disables the auth gate
	AuthTokenTTL   time.Duration // Session token lifetime
	LoginRateLimit int           // Login attempts per IP per minute
	TrustedProxies []string      // Proxies allowed to set X-Forwarded-For (IPs or CIDRs)

	// Observability (optional)
	SentryDSN string
	LogFile   string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region           string
	S3Bucket           string
	S3AccessKey        string
	S3SecretKey        string
	S3Endpoint         string        // Endpoint used by the server (may be a private network name)
	S3ExternalEndpoint string        // Endpoint presigned upload URLs are signed against
	S3PublicURL        string        // Base URL browsers use to read objects
	S3PresignExpiry    time.Duration // Lifetime of presigned upload URLs
	S3AutoCreateBucket bool

	// Media processing
	FFmpegPath          string
	FFprobePath         string
	MediaTempDir        string
	MediaMaxUploadBytes int64
	MediaMaxJobs        int
	MediaJobTimeout     time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:     envString("APP_NAME", "Baby Book"),
		AppEnv:      envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:        envString("PORT", "3000"),
		MetricsAddr: envString("METRICS_ADDR", ""),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/babybook.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Access
		AccessPassword: strings.TrimSpace(os.Getenv("ACCESS_PASSWORD")),
		AuthTokenTTL:   envDuration("AUTH_TOKEN_TTL", 168*time.Hour), // 7 days
		LoginRateLimit: envInt("LOGIN_RATE_LIMIT", 10),
		TrustedProxies: envList("TRUSTED_PROXIES"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
		LogFile:   envString("LOG_FILE", ""),

		// Storage
		S3Region:           envString("S3_REGION", "us-east-1"), // MinIO ignores it but the SDK needs one
		S3Bucket:           envString("S3_BUCKET", "my-baby"),
		S3AccessKey:        envString("S3_ACCESS_KEY", ""),
		S3SecretKey:        envString("S3_SECRET_KEY", ""),
		S3Endpoint:         envString("S3_ENDPOINT", ""),
		S3ExternalEndpoint: envString("S3_EXTERNAL_ENDPOINT", ""),
		S3PublicURL:        envString("S3_PUBLIC_URL", ""),
		S3PresignExpiry:    envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour),
		S3AutoCreateBucket: envBool("S3_AUTO_CREATE_BUCKET", false),

		// Media
		FFmpegPath:          envString("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:         envString("FFPROBE_PATH", "ffprobe"),
		MediaTempDir:        envString("MEDIA_TEMP_DIR", os.TempDir()),
		MediaMaxUploadBytes: int64(envInt("MEDIA_MAX_UPLOAD_BYTES", 200<<20)), // 200 MiB
		MediaMaxJobs:        envInt("MEDIA_MAX_CONCURRENT_JOBS", 2),
		MediaJobTimeout:     envDuration("MEDIA_JOB_TIMEOUT", 10*time.Minute),
	}

	// External endpoint defaults to the internal one (single-host setups)
	if cfg.S3ExternalEndpoint == "" {
		cfg.S3ExternalEndpoint = cfg.S3Endpoint
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction warns about deployments that run without access control.
// An empty password is allowed (the gate is simply disabled) but should never be accidental.
func validateProduction(cfg *Config) {
	if cfg.AccessPassword == "" {
		slog.Warn("ACCESS_PASSWORD is empty, every request will be allowed",
			"hint", "set ACCESS_PASSWORD to enable the login gate")
	}
	if cfg.MediaMaxJobs < 1 {
		slog.Error("MEDIA_MAX_CONCURRENT_JOBS must be at least 1", "value", cfg.MediaMaxJobs)
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AuthEnabled reports whether the shared-password gate is active.
func (c *Config) AuthEnabled() bool {
	return c.AccessPassword != ""
}

// StorageConfigured reports whether enough S3 settings exist to attempt media operations.
func (c *Config) StorageConfigured() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// Safe to expose in ctx and templates.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:             c.AppName,
		AppEnv:              c.AppEnv,
		Port:                c.Port,
		S3PublicURL:         c.S3PublicURL,
		S3ExternalEndpoint:  c.S3ExternalEndpoint, // Needed for CSP connect-src
		MediaMaxUploadBytes: c.MediaMaxUploadBytes,
	}
}
