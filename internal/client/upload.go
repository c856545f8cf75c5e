package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/templui/babybook/internal/media"
	"github.com/templui/babybook/internal/model"
	"golang.org/x/sync/errgroup"
)

const MaxUploadBytes = 200 << 20

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("not an image or video")
	// ErrHEICConversion is returned by DirectStrategy when a HEIC/HEIF file cannot be
	// turned into JPEG locally. Storage keys HEIC uploads as .jpg, so the original
	// bytes are never sent in its place.
	ErrHEICConversion = errors.New("heic conversion failed")
)

// File is a local file queued for upload.
type File struct {
	Path        string
	Name        string
	ContentType string
	Size        int64
}

// OpenFile stats path and works out its content type from the extension,
// falling back to sniffing the first bytes.
func OpenFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	f := &File{Path: path, Name: filepath.Base(path), Size: info.Size()}
	f.ContentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if f.ContentType == "" {
		f.ContentType = heifType(f.Name)
	}
	if f.ContentType == "" {
		f.ContentType, err = sniff(path)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func heifType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	return ""
}

func sniff(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()
	buf := make([]byte, 512)
	n, err := io.ReadFull(fh, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// Validate applies the checks the server would otherwise reject the upload for.
func (f *File) Validate(maxBytes int64) error {
	if maxBytes > 0 && f.Size > maxBytes {
		return fmt.Errorf("%w: %q is %s, limit %s", ErrFileTooLarge, f.Name,
			humanize.IBytes(uint64(f.Size)), humanize.IBytes(uint64(maxBytes)))
	}
	if model.ClassifyMIME(f.ContentType) == "" {
		return fmt.Errorf("%w: %q (%s)", ErrUnsupportedType, f.Name, f.ContentType)
	}
	return nil
}

func (f *File) IsVideo() bool {
	return model.ClassifyMIME(f.ContentType) == model.MediaTypeVideo
}

// Uploaded describes a stored object, ready for the metadata step.
type Uploaded struct {
	URL          string
	MediaType    string
	Format       string
	ThumbnailURL *string
	Duration     *int
}

// UploadStrategy moves the bytes of one file into storage.
type UploadStrategy interface {
	Upload(ctx context.Context, f *File) (*Uploaded, error)
}

// ProxyStrategy posts the file to the server, which converts and stores it.
type ProxyStrategy struct {
	Client *Client
}

func (s *ProxyStrategy) Upload(ctx context.Context, f *File) (*Uploaded, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
		header.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(header)
		if err == nil {
			_, err = io.Copy(part, fh)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := s.Client.newRequest(ctx, http.MethodPost, "/api/photos/upload", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res model.UploadResult
	if err := s.Client.send(req, &res); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	return &Uploaded{
		URL:          res.URL,
		MediaType:    res.MediaType,
		Format:       res.Format,
		ThumbnailURL: res.ThumbnailURL,
		Duration:     res.Duration,
	}, nil
}

// DirectStrategy converts locally and PUTs straight to storage through presigned URLs.
// Images and Video are optional: without Images HEIC files fail with
// ErrHEICConversion, and without Video and Probe videos get no thumbnail or duration.
type DirectStrategy struct {
	Client  *Client
	Images  media.ImageConverter
	Video   media.Transcoder
	Probe   media.MetadataProbe
	TempDir string
}

func (s *DirectStrategy) Upload(ctx context.Context, f *File) (*Uploaded, error) {
	dir, err := os.MkdirTemp(s.TempDir, "babyctl-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	src := f
	if !f.IsVideo() {
		if src, err = s.convertHEIC(ctx, f, dir); err != nil {
			return nil, err
		}
	}

	var presign model.PresignResponse
	err = s.Client.do(ctx, http.MethodPost, "/api/photos/generate-upload-url", model.PresignRequest{
		Filename:    media.SafeFilename(f.Name),
		ContentType: src.ContentType,
		IsVideo:     f.IsVideo(),
	}, &presign)
	if err != nil {
		return nil, fmt.Errorf("failed to get upload url: %w", err)
	}

	if err := s.put(ctx, presign.UploadURL, src.Path, presign.ContentType); err != nil {
		return nil, err
	}

	up := &Uploaded{URL: presign.PublicURL, MediaType: presign.MediaType, Format: presign.Format}
	if f.IsVideo() {
		up.Duration, up.ThumbnailURL = s.videoMetadata(ctx, f, dir, &presign)
	}
	return up, nil
}

// convertHEIC returns a JPEG copy of HEIC/HEIF input, or f itself for other images.
func (s *DirectStrategy) convertHEIC(ctx context.Context, f *File, dir string) (*File, error) {
	ct := strings.ToLower(f.ContentType)
	if ct != "image/heic" && ct != "image/heif" && heifType(f.Name) == "" {
		return f, nil
	}
	if s.Images == nil {
		return nil, fmt.Errorf("%w: no image converter configured", ErrHEICConversion)
	}

	out := filepath.Join(dir, strings.TrimSuffix(media.SafeFilename(f.Name), filepath.Ext(f.Name))+".jpg")
	if err := s.Images.ToJPEG(ctx, f.Path, out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHEICConversion, err)
	}
	info, err := os.Stat(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHEICConversion, err)
	}
	return &File{Path: out, Name: filepath.Base(out), ContentType: "image/jpeg", Size: info.Size()}, nil
}

// videoMetadata probes the duration and uploads a thumbnail taken at min(1s, duration/2).
// Failures only drop the metadata.
func (s *DirectStrategy) videoMetadata(ctx context.Context, f *File, dir string, presign *model.PresignResponse) (*int, *string) {
	var duration *int
	at := media.ThumbnailOffset
	if s.Probe != nil {
		secs, ok, err := s.Probe.Duration(ctx, f.Path)
		switch {
		case err != nil:
			slog.Warn("failed to probe video duration", "file", f.Name, "error", err)
		case ok:
			duration = &secs
			at = min(media.ThumbnailOffset, time.Duration(secs)*time.Second/2)
		}
	}

	if s.Video == nil || presign.ThumbnailUploadURL == nil {
		return duration, nil
	}
	thumb := filepath.Join(dir, "thumb.jpg")
	if err := s.Video.Thumbnail(ctx, f.Path, thumb, at, media.ThumbnailWidth); err != nil {
		slog.Warn("failed to extract video thumbnail", "file", f.Name, "error", err)
		return duration, nil
	}
	if err := s.put(ctx, *presign.ThumbnailUploadURL, thumb, "image/jpeg"); err != nil {
		slog.Warn("failed to upload video thumbnail", "file", f.Name, "error", err)
		return duration, nil
	}
	return duration, presign.ThumbnailPublicURL
}

// put uploads a file to a presigned URL. The session cookie is not sent to storage.
func (s *DirectStrategy) put(ctx context.Context, uploadURL, path, contentType string) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	info, err := fh.Stat()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, fh)
	if err != nil {
		return err
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", contentType)

	resp, err := s.Client.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload to storage failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload to storage failed (HTTP %d)", resp.StatusCode)
	}
	return nil
}

// UploadItem is one file plus the title it should be saved with.
type UploadItem struct {
	Path  string
	Title string
}

// Uploader runs a strategy over several files and then creates their metadata:
// one item through POST /api/photos, several through the batch route.
type Uploader struct {
	Client      *Client
	Strategy    UploadStrategy
	Concurrency int
	MaxBytes    int64
}

func (u *Uploader) Upload(ctx context.Context, babyID, date string, items []UploadItem) ([]*model.MediaItem, error) {
	if len(items) == 0 {
		return nil, errors.New("no files to upload")
	}
	maxBytes := u.MaxBytes
	if maxBytes == 0 {
		maxBytes = MaxUploadBytes
	}

	files := make([]*File, len(items))
	for i, item := range items {
		f, err := OpenFile(item.Path)
		if err != nil {
			return nil, err
		}
		if err := f.Validate(maxBytes); err != nil {
			return nil, err
		}
		files[i] = f
	}

	uploaded := make([]*Uploaded, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(u.Concurrency, 1))
	for i, f := range files {
		g.Go(func() error {
			up, err := u.Strategy.Upload(gctx, f)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			slog.Debug("file stored", "file", f.Name, "url", up.URL)
			uploaded[i] = up
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inputs := make([]model.MediaInput, len(uploaded))
	for i, up := range uploaded {
		in := model.MediaInput{
			BabyID:    model.Some(babyID),
			Title:     model.Some(items[i].Title),
			URL:       model.Some(up.URL),
			MediaType: model.Some(up.MediaType),
		}
		if date != "" {
			in.Date = model.Some(date)
		}
		if up.Format != "" {
			in.Format = model.Some(up.Format)
		}
		if up.ThumbnailURL != nil {
			in.ThumbnailURL = model.Some(*up.ThumbnailURL)
		}
		if up.Duration != nil {
			in.Duration = model.Some(float64(*up.Duration))
		}
		inputs[i] = in
	}

	if len(inputs) == 1 {
		item, err := u.Client.CreateMediaItem(ctx, inputs[0])
		if err != nil {
			return nil, err
		}
		return []*model.MediaItem{item}, nil
	}
	return u.Client.CreateMediaBatch(ctx, inputs)
}
