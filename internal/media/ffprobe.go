package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
)

// FFprobe runs the ffprobe binary at Path.
type FFprobe struct {
	Path string
}

func NewFFprobe(path string) *FFprobe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFprobe{Path: path}
}

type probeOutput struct {
	Format *struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// Duration prefers the container duration and falls back to the first video stream.
func (p *FFprobe) Duration(ctx context.Context, path string) (int, bool, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, false, &ToolError{Tool: "FFprobe", Detail: "timed out or canceled", Err: ctx.Err()}
		}
		slog.Error("ffprobe failed", "error", err, "stderr", stderr.String())
		return 0, false, &ToolError{Tool: "FFprobe", Detail: lastLine(stderr.String()), Err: err}
	}

	return parseDuration(stdout.Bytes())
}

func parseDuration(raw []byte) (int, bool, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, false, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if out.Format != nil {
		if secs, ok := roundSeconds(out.Format.Duration); ok {
			return secs, true, nil
		}
	}
	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		if secs, ok := roundSeconds(s.Duration); ok {
			return secs, true, nil
		}
		break
	}
	return 0, false, nil
}

func roundSeconds(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}
