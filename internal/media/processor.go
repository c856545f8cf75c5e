package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	ThumbnailWidth  = 320
	ThumbnailOffset = time.Second
)

type ProcessorConfig struct {
	TempDir       string
	MaxConcurrent int
	JobTimeout    time.Duration
}

// Processor admits conversions through a bounded semaphore and runs each one
// in its own temp directory that is removed when the job returns.
type Processor struct {
	transcoder Transcoder
	probe      MetadataProbe
	images     ImageConverter
	observer   Observer
	sem        *semaphore.Weighted
	timeout    time.Duration
	tempDir    string
}

func NewProcessor(t Transcoder, p MetadataProbe, images ImageConverter, cfg ProcessorConfig) *Processor {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	return &Processor{
		transcoder: t,
		probe:      p,
		images:     images,
		sem:        semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		timeout:    cfg.JobTimeout,
		tempDir:    cfg.TempDir,
	}
}

// SetObserver attaches a latency observer (metrics).
func (p *Processor) SetObserver(o Observer) {
	p.observer = o
}

// Video is the output of ProcessVideo. Paths are only valid inside the callback.
type Video struct {
	Path          string
	ThumbnailPath string
	Duration      *int
}

// ProcessVideo transcodes src to MP4, extracts a thumbnail and probes the duration,
// then hands the results to fn. The temp directory is removed after fn returns.
func (p *Processor) ProcessVideo(ctx context.Context, src io.Reader, filename, id string, fn func(*Video) error) error {
	return p.job(ctx, func(ctx context.Context, dir string) error {
		in := filepath.Join(dir, SafeFilename(filename))
		if err := writeFile(in, src); err != nil {
			return err
		}

		out := filepath.Join(dir, id+".mp4")
		if err := p.step(ctx, "transcode", func(ctx context.Context) error {
			return p.transcoder.ToMP4(ctx, in, out)
		}); err != nil {
			return err
		}

		thumb := filepath.Join(dir, id+"_thumb.jpg")
		if err := p.step(ctx, "thumbnail", func(ctx context.Context) error {
			return p.transcoder.Thumbnail(ctx, out, thumb, ThumbnailOffset, ThumbnailWidth)
		}); err != nil {
			return err
		}

		video := &Video{Path: out, ThumbnailPath: thumb}
		err := p.step(ctx, "probe", func(ctx context.Context) error {
			secs, ok, err := p.probe.Duration(ctx, out)
			if ok {
				video.Duration = &secs
			}
			return err
		})
		if err != nil {
			return err
		}

		return fn(video)
	})
}

// ConvertImage re-encodes src as JPEG and passes the output path to fn.
func (p *Processor) ConvertImage(ctx context.Context, src io.Reader, filename string, fn func(path string) error) error {
	return p.job(ctx, func(ctx context.Context, dir string) error {
		in := filepath.Join(dir, SafeFilename(filename))
		if err := writeFile(in, src); err != nil {
			return err
		}

		out := filepath.Join(dir, "converted.jpg")
		if err := p.step(ctx, "image", func(ctx context.Context) error {
			return p.images.ToJPEG(ctx, in, out)
		}); err != nil {
			return err
		}

		return fn(out)
	})
}

func (p *Processor) job(ctx context.Context, fn func(ctx context.Context, dir string) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	dir, err := os.MkdirTemp(p.tempDir, "media-upload-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Error("failed to clean up temp dir", "dir", dir, "error", err)
		}
	}()

	return fn(ctx, dir)
}

func (p *Processor) step(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	if p.observer != nil {
		p.observer.ObserveConversion(name, time.Since(start), err)
	}
	return err
}

func writeFile(path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("failed to write input: %w", err)
	}
	return f.Close()
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SafeFilename keeps the original name readable while making it safe to use as a path element.
func SafeFilename(name string) string {
	name = unsafeChars.ReplaceAllString(filepath.Base(name), "_")
	if name == "" || name == "." || name == ".." {
		return "input"
	}
	return name
}
