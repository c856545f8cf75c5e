package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Parser renders user-written Markdown (milestone journals) to sanitized HTML.
type Parser struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Parser{
		md:     md,
		policy: policy,
	}
}

// Parse converts source to HTML without sanitizing.
func (p *Parser) Parse(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := p.md.Convert(source, &buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render converts source to HTML that is safe to embed in a page. Raw HTML in the
// source is escaped by goldmark and anything that survives is filtered by the UGC policy.
func (p *Parser) Render(source string) (string, error) {
	if source == "" {
		return "", nil
	}
	html, err := p.Parse([]byte(source))
	if err != nil {
		return "", err
	}
	return string(p.policy.SanitizeBytes(html)), nil
}
