// Package pages holds the server-rendered HTML shell: login, the baby overview and 404.
package pages

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
	"github.com/templui/babybook/internal/ctxkeys"
	"github.com/templui/babybook/internal/model"
)

func appName(ctx context.Context) string {
	if cfg := ctxkeys.Config(ctx); cfg != nil && cfg.AppName != "" {
		return cfg.AppName
	}
	return "Baby Book"
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		lang := ctxkeys.Language(ctx)
		if lang == "" {
			lang = "zh-Hans"
		}
		_, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="%s"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>%s · %s</title></head><body>`,
			templ.EscapeString(lang), templ.EscapeString(title), templ.EscapeString(appName(ctx)))
		if err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, `</body></html>`)
		return err
	})
}

// Login renders the password form. from is where to go after a successful login.
func Login(from string) templ.Component {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		from = "/"
	}
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		nonce := templ.GetNonce(ctx)
		_, err := fmt.Fprintf(w, `<main><h1>%s</h1>`+
			`<form id="login" data-from="%s"><input type="password" name="password" autocomplete="current-password" autofocus>`+
			`<button type="submit">OK</button><p id="login-error" role="alert"></p></form></main>`+
			`<script nonce="%s">
document.getElementById("login").addEventListener("submit", async (e) => {
  e.preventDefault();
  const form = e.target;
  const res = await fetch("/api/auth/verify", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({password: form.password.value}),
  });
  const data = await res.json().catch(() => ({}));
  if (res.ok && data.success) { window.location.href = form.dataset.from; return; }
  document.getElementById("login-error").textContent = data.message || data.error || res.statusText;
});
</script>`,
			templ.EscapeString(appName(ctx)), templ.EscapeString(from), templ.EscapeString(nonce))
		return err
	})
	return layout("Login", body)
}

// Home lists every baby with its record counts.
func Home(babies []*model.BabyWithStats) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<main><h1>%s</h1>`, templ.EscapeString(appName(ctx))); err != nil {
			return err
		}
		if len(babies) == 0 {
			_, err := io.WriteString(w, `<p>No babies yet.</p></main>`)
			return err
		}
		if _, err := io.WriteString(w, `<ul>`); err != nil {
			return err
		}
		for _, b := range babies {
			_, err := fmt.Fprintf(w, `<li><a href="/api/baby?id=%s">%s</a> · %s · %d growth records, %d milestones, %d photos and videos</li>`,
				templ.EscapeString(b.ID),
				templ.EscapeString(b.Name),
				templ.EscapeString(humanize.Time(b.BirthDate)),
				b.Count.GrowthRecords, b.Count.Milestones, b.Count.MediaItems)
			if err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul><form method="post" action="/api/auth/logout"><button type="submit">Logout</button></form></main>`)
		return err
	})
	return layout("Home", body)
}

func NotFound() templ.Component {
	return layout("Not found", templ.Raw(`<main><h1>404</h1><p><a href="/">Home</a></p></main>`))
}
