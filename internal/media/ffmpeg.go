package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// FFmpeg runs the ffmpeg binary at Path.
type FFmpeg struct {
	Path string
}

func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

// ToMP4 transcodes in to an H.264/AAC MP4 with the moov atom up front for streaming.
func (f *FFmpeg) ToMP4(ctx context.Context, in, out string) error {
	return f.run(ctx,
		"-y",
		"-i", in,
		"-vcodec", "libx264",
		"-acodec", "aac",
		"-movflags", "+faststart",
		"-preset", "medium",
		"-profile:v", "main",
		"-level", "3.1",
		"-crf", "23",
		out,
	)
}

// Thumbnail grabs one frame at offset at, scaled to width with the aspect ratio kept.
func (f *FFmpeg) Thumbnail(ctx context.Context, in, out string, at time.Duration, width int) error {
	return f.run(ctx,
		"-y",
		"-i", in,
		"-ss", formatOffset(at),
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", width),
		out,
	)
}

// jpegQScale is the mjpeg -q:v step (2 best, 31 worst) closest to JPEGQuality 80.
const jpegQScale = "5"

// ToJPEG decodes anything ffmpeg understands (HEIC included) into a single JPEG frame.
func (f *FFmpeg) ToJPEG(ctx context.Context, in, out string) error {
	return f.run(ctx,
		"-y",
		"-i", in,
		"-frames:v", "1",
		"-q:v", jpegQScale,
		out,
	)
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Path, args...)
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return &ToolError{Tool: "FFmpeg", Detail: "timed out or canceled", Err: ctx.Err()}
	}

	slog.Error("ffmpeg failed", "error", err, "stderr", stderr.String())
	return &ToolError{Tool: "FFmpeg", Detail: lastLine(stderr.String()), Err: err}
}

// formatOffset renders d as HH:MM:SS.mmm.
func formatOffset(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3_600_000, ms/60_000%60, ms/1000%60, ms%1000)
}
