// Package auth implements the shared-password session: a stateless signed cookie token
// and the decision of which requests it must accompany.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	CookieName = "baby_access_token"
	DefaultTTL = 7 * 24 * time.Hour
)

// Codec issues and validates "{expireAtMillis}.{hex(HMAC-SHA256(secret, expireAtMillis))}" tokens.
// Rotating the secret invalidates every outstanding token.
type Codec struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func NewCodec(secret string, opts ...Option) *Codec {
	c := &Codec{secret: secret, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether a secret is configured. Without one the gate lets everything through.
func (c *Codec) Enabled() bool {
	return c.secret != ""
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue returns a token expiring TTL from now.
func (c *Codec) Issue() string {
	expireAt := strconv.FormatInt(c.now().Add(c.ttl).UnixMilli(), 10)
	return expireAt + "." + sign(c.secret, expireAt)
}

// Validate reports whether token is well formed, unexpired and signed with the codec's secret.
func (c *Codec) Validate(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return false
	}

	expireAt, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return false
	}
	if c.now().UnixMilli() > expireAt {
		return false
	}

	got, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want := mac(c.secret, parts[0])
	return hmac.Equal(got, want)
}

func mac(secret, msg string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(msg))
	return h.Sum(nil)
}

func sign(secret, msg string) string {
	return hex.EncodeToString(mac(secret, msg))
}
