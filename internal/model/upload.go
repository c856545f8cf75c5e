package model

import (
	"mime"
	"path/filepath"
	"strings"
)

// PassthroughImages are image types stored as uploaded, keyed by the extension they are saved under.
var PassthroughImages = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// UploadResult answers a proxied upload.
type UploadResult struct {
	Message        string  `json:"message"`
	URL            string  `json:"url"`
	MediaType      string  `json:"mediaType"`
	Format         string  `json:"format"`
	OriginalFormat string  `json:"originalFormat"`
	ThumbnailURL   *string `json:"thumbnailUrl"`
	Duration       *int    `json:"duration"`
}

// PresignRequest asks for direct-to-storage upload URLs.
type PresignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	IsVideo     bool   `json:"isVideo"`
}

type PresignResponse struct {
	Success            bool    `json:"success"`
	UploadURL          string  `json:"uploadUrl"`
	Key                string  `json:"key"`
	PublicURL          string  `json:"publicUrl"`
	MediaType          string  `json:"mediaType"`
	Format             string  `json:"format"`
	ContentType        string  `json:"contentType"`
	ThumbnailUploadURL *string `json:"thumbnailUploadUrl"`
	ThumbnailKey       *string `json:"thumbnailKey"`
	ThumbnailPublicURL *string `json:"thumbnailPublicUrl"`
}

// ClassifyMIME returns IMAGE or VIDEO for image/* and video/* types, "" otherwise.
func ClassifyMIME(contentType string) string {
	ct := BaseMIME(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaTypeImage
	case strings.HasPrefix(ct, "video/"):
		return MediaTypeVideo
	default:
		return ""
	}
}

// Normalized is the storage form of an upload announced by a direct-upload client.
type Normalized struct {
	ContentType string
	Extension   string
}

// NormalizeContentType maps what the client has to what will be stored.
// HEIC/HEIF are converted on the client, so they are stored as JPEG.
func NormalizeContentType(contentType, filename string) Normalized {
	ct := strings.ToLower(BaseMIME(contentType))

	if ct == "image/heic" || ct == "image/heif" {
		return Normalized{ContentType: "image/jpeg", Extension: "jpg"}
	}

	if strings.HasPrefix(ct, "video/") {
		ext := FileExtension(filename)
		if ext == "" {
			ext = "mp4"
		}
		return Normalized{ContentType: ct, Extension: ext}
	}

	if ext, ok := PassthroughImages[ct]; ok {
		return Normalized{ContentType: ct, Extension: ext}
	}
	ext := FileExtension(filename)
	if ext == "" {
		ext = "jpg"
	}
	return Normalized{ContentType: ct, Extension: ext}
}

// BaseMIME strips parameters from a Content-Type.
func BaseMIME(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// FileExtension is the lowercased extension of filename without the dot.
func FileExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
