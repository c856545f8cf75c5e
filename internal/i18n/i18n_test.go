package i18n

import (
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.SimplifiedChinese},
		{"en-US,en;q=0.9", language.English},
		{"zh-CN,zh;q=0.9,en;q=0.8", language.SimplifiedChinese},
		{"fr-FR", language.SimplifiedChinese},
		{"de;q=0.5,en-GB;q=0.8", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := Match(tt.header); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestT(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := T(r, MsgPasswordIncorrect); got != "密码错误" {
		t.Errorf("default T() = %q, want Chinese", got)
	}

	r.Header.Set("Accept-Language", "en")
	if got := T(r, MsgItemURL, 3); got != "Item 3: URL is required" {
		t.Errorf("english T() = %q", got)
	}

	r = httptest.NewRequest("GET", "/?lang=en", nil)
	r.Header.Set("Accept-Language", "zh-CN")
	if got := T(r, MsgNoFile); got != "No file provided." {
		t.Errorf("lang override T() = %q", got)
	}
}

func TestCatalogComplete(t *testing.T) {
	keys := []string{
		MsgPasswordRequired, MsgPasswordIncorrect, MsgNoFile, MsgFileTooLarge,
		MsgUnsupportedType, MsgItemBabyID, MsgItemURL, MsgItemMediaType, MsgBatchFailed,
	}
	for _, k := range keys {
		if _, ok := zhHans[k]; !ok {
			t.Errorf("missing zh-Hans translation for %q", k)
		}
	}
}
