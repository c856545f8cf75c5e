package model

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestTags(t *testing.T) {
	if got := EncodeTags(nil); got != nil {
		t.Errorf("EncodeTags(nil) = %q, want nil", *got)
	}

	raw := EncodeTags([]string{"first", "smile"})
	if raw == nil || *raw != `["first","smile"]` {
		t.Fatalf("EncodeTags() = %v, want JSON array", raw)
	}
	if got := DecodeTags(raw); !reflect.DeepEqual(got, []string{"first", "smile"}) {
		t.Errorf("DecodeTags() = %v", got)
	}

	bad := "not json"
	if got := DecodeTags(&bad); len(got) != 0 || got == nil {
		t.Errorf("DecodeTags(bad) = %#v, want empty non-nil slice", got)
	}
	if got := DecodeTags(nil); got == nil {
		t.Error("DecodeTags(nil) = nil, want empty slice")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), false},
		{"2024-03-05T10:30:00Z", time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC), false},
		{"2024-03-05T10:30:00+08:00", time.Date(2024, 3, 5, 2, 30, 0, 0, time.UTC), false},
		{"2024-03-05T10:30", time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC), false},
		{"yesterday", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeContentType(t *testing.T) {
	tests := []struct {
		ct, filename    string
		wantCT, wantExt string
	}{
		{"image/heic", "IMG_1.HEIC", "image/jpeg", "jpg"},
		{"image/HEIF", "a.heif", "image/jpeg", "jpg"},
		{"image/jpeg", "a.jpeg", "image/jpeg", "jpg"},
		{"image/png", "a.png", "image/png", "png"},
		{"image/webp", "a", "image/webp", "webp"},
		{"image/bmp", "scan.BMP", "image/bmp", "bmp"},
		{"image/x-unknown", "noext", "image/x-unknown", "jpg"},
		{"video/QuickTime", "clip.MOV", "video/quicktime", "mov"},
		{"video/mp4", "clip", "video/mp4", "mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.ct+" "+tt.filename, func(t *testing.T) {
			got := NormalizeContentType(tt.ct, tt.filename)
			if got.ContentType != tt.wantCT || got.Extension != tt.wantExt {
				t.Errorf("NormalizeContentType(%q, %q) = %+v, want %s/%s", tt.ct, tt.filename, got, tt.wantCT, tt.wantExt)
			}
		})
	}
}

func TestMeasureUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    *float64
		wantErr bool
	}{
		{`3.2`, ptr(3.2), false},
		{`"4.5"`, ptr(4.5), false},
		{`""`, nil, false},
		{`0`, nil, false},
		{`null`, nil, false},
		{`"heavy"`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var in GrowthInput
			err := json.Unmarshal([]byte(`{"weight":`+tt.in+`}`), &in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !in.Weight.Set {
				t.Error("Weight.Set = false, want true")
			}
			if !reflect.DeepEqual(in.Weight.Value, tt.want) {
				t.Errorf("Weight.Value = %v, want %v", in.Weight.Value, tt.want)
			}
		})
	}
}

func TestOptionalRoundTrip(t *testing.T) {
	in := MediaInput{BabyID: Some("b1"), Title: Optional[string]{Set: true}}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"babyId":"b1","title":null}` {
		t.Errorf("Marshal() = %s", b)
	}

	var out MediaInput
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.BabyID.Get() != "b1" || !out.Title.Set || out.Title.Value != nil || out.URL.Set {
		t.Errorf("Unmarshal() = %+v", out)
	}
}

func ptr[T any](v T) *T { return &v }
