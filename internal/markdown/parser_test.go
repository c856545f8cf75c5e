package markdown

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name        string
		in          string
		contains    []string
		notContains []string
	}{
		{"empty", "", nil, []string{"<p>"}},
		{"emphasis", "First **smile** today", []string{"<strong>smile</strong>"}, nil},
		{"task list", "- [x] rolled over", []string{"<li>", "rolled over"}, nil},
		{"script stripped", "hi <script>alert(1)</script>", []string{"hi"}, []string{"<script>", "alert(1)</script>"}},
		{"links get nofollow", "[doc](https://example.com)", []string{`rel="nofollow`, `href="https://example.com"`}, nil},
		{"javascript link dropped", "[x](javascript:alert(1))", nil, []string{"javascript:"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Render(tt.in)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Render(%q) = %q, want it to contain %q", tt.in, got, want)
				}
			}
			for _, bad := range tt.notContains {
				if strings.Contains(got, bad) {
					t.Errorf("Render(%q) = %q, must not contain %q", tt.in, got, bad)
				}
			}
		})
	}
}
