package auth

import "strings"

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
	Unauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

const LoginPath = "/login"

var publicPrefixes = []string{
	LoginPath,
	"/api/auth",
	"/_next",
	"/favicon.ico",
	"/assets",
	"/healthz",
}

func IsPublic(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Decide is the whole gate policy. api marks callers that expect JSON rather than an HTML redirect.
func Decide(path, token string, api bool, codec *Codec) Decision {
	if !codec.Enabled() {
		return Allow
	}

	if IsPublic(path) {
		if path == LoginPath && token != "" && codec.Validate(token) {
			return RedirectHome
		}
		return Allow
	}

	if token != "" && codec.Validate(token) {
		return Allow
	}
	if api {
		return Unauthorized
	}
	return RedirectLogin
}
