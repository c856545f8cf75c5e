package auth

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCodec_IssueFormat(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	c := NewCodec("s3cret", WithClock(fixedClock(now)))

	token := c.Issue()
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		t.Fatalf("Issue() = %q, want two dot-separated parts", token)
	}
	wantExpire := now.Add(DefaultTTL).UnixMilli()
	if parts[0] != strconv.FormatInt(wantExpire, 10) {
		t.Errorf("expireAt = %s, want %d", parts[0], wantExpire)
	}
	if len(parts[1]) != 64 {
		t.Errorf("signature length = %d, want 64 hex chars", len(parts[1]))
	}
	if parts[1] != sign("s3cret", parts[0]) {
		t.Error("signature is not HMAC-SHA256(secret, expireAt)")
	}
}

func TestCodec_Validate(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	c := NewCodec("s3cret", WithClock(fixedClock(now)))
	valid := c.Issue()
	expire := strings.Split(valid, ".")[0]

	tests := []struct {
		name  string
		token string
		codec *Codec
		want  bool
	}{
		{"valid", valid, c, true},
		{"empty", "", c, false},
		{"one part", "12345", c, false},
		{"three parts", valid + ".x", c, false},
		{"non-integer expiry", "abc." + sign("s3cret", "abc"), c, false},
		{"non-hex signature", expire + ".zz", c, false},
		{"tampered signature", expire + "." + strings.Repeat("0", 64), c, false},
		{"other secret", valid, NewCodec("other", WithClock(fixedClock(now))), false},
		{"expired", valid, NewCodec("s3cret", WithClock(fixedClock(now.Add(DefaultTTL+time.Millisecond)))), false},
		{"exactly at expiry", valid, NewCodec("s3cret", WithClock(fixedClock(now.Add(DefaultTTL)))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.codec.Validate(tt.token); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestCodec_WithTTL(t *testing.T) {
	now := time.UnixMilli(1_000)
	c := NewCodec("k", WithClock(fixedClock(now)), WithTTL(time.Hour))
	token := c.Issue()
	if want := strconv.FormatInt(now.Add(time.Hour).UnixMilli(), 10); !strings.HasPrefix(token, want+".") {
		t.Errorf("Issue() = %q, want expiry %s", token, want)
	}
}

func TestDecide(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	c := NewCodec("pw", WithClock(fixedClock(now)))
	valid := c.Issue()
	disabled := NewCodec("")

	tests := []struct {
		name  string
		path  string
		token string
		api   bool
		codec *Codec
		want  Decision
	}{
		{"no secret allows everything", "/api/babies", "", true, disabled, Allow},
		{"login without token", "/login", "", false, c, Allow},
		{"login with valid token", "/login", valid, false, c, RedirectHome},
		{"login with bad token", "/login", "1.ab", false, c, Allow},
		{"auth api is public", "/api/auth/verify", "", true, c, Allow},
		{"next assets are public", "/_next/static/app.js", "", false, c, Allow},
		{"favicon is public", "/favicon.ico", "", false, c, Allow},
		{"page without token", "/milestones", "", false, c, RedirectLogin},
		{"api without token", "/api/babies", "", true, c, Unauthorized},
		{"page with valid token", "/", valid, false, c, Allow},
		{"api with valid token", "/api/photos", valid, true, c, Allow},
		{"page with forged token", "/", "9999999999999.deadbeef", false, c, RedirectLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.path, tt.token, tt.api, tt.codec); got != tt.want {
				t.Errorf("Decide(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("open sesame")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name       string
		configured string
		attempt    string
		want       bool
	}{
		{"unset allows", "", "anything", true},
		{"plain match", "hunter2", "hunter2", true},
		{"plain mismatch", "hunter2", "hunter3", false},
		{"plain empty attempt", "hunter2", "", false},
		{"bcrypt match", hash, "open sesame", true},
		{"bcrypt mismatch", hash, "open", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.configured, tt.attempt); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}
