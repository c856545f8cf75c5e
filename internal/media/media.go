// Package media converts uploaded images and videos into the formats the gallery serves:
// JPEG for stills, H.264/AAC MP4 with a JPEG thumbnail for video.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrBusy             = errors.New("media processor busy")
)

// Transcoder produces browser-playable video and poster frames.
type Transcoder interface {
	ToMP4(ctx context.Context, in, out string) error
	Thumbnail(ctx context.Context, in, out string, at time.Duration, width int) error
}

// MetadataProbe reads the duration of a media file in whole seconds.
// ok is false when the container carries no duration.
type MetadataProbe interface {
	Duration(ctx context.Context, path string) (seconds int, ok bool, err error)
}

// ImageConverter re-encodes any image it can read as JPEG.
type ImageConverter interface {
	ToJPEG(ctx context.Context, in, out string) error
}

// Observer receives the latency and outcome of each conversion step.
type Observer interface {
	ObserveConversion(step string, d time.Duration, err error)
}

// ToolError is a failed external tool run. Detail is the last line the tool wrote to stderr.
type ToolError struct {
	Tool   string
	Detail string
	Err    error
}

func (e *ToolError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = "unknown " + e.Tool + " error"
	}
	return fmt.Sprintf("%s error: %s", e.Tool, detail)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// lastLine returns the final non-empty line of tool output.
func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
