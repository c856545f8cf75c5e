package ctxkeys

import (
	"context"

	"github.com/templui/babybook/internal/config"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	ConfigKey   contextKey = "config"
	LanguageKey contextKey = "language"
)

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

// Language is the BCP 47 tag picked for the request, "" when unset.
func Language(ctx context.Context) string {
	lang, _ := ctx.Value(LanguageKey).(string)
	return lang
}

func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, LanguageKey, lang)
}
