package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	cfg "github.com/templui/babybook/internal/config"
)

// ProxyPrefix is the app route that streams objects when the bucket is not reachable by browsers.
const ProxyPrefix = "/api/media"

var (
	ErrNotFound      = errors.New("object not found")
	ErrNotConfigured = errors.New("storage is not configured")
)

// Storage defines the object storage operations used by the media pipeline and routes
type Storage interface {
	// Upload stores size bytes from body at key
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*UploadResult, error)

	// Delete removes the object at key
	Delete(ctx context.Context, key string) error

	// PresignUpload returns a URL a client can PUT the object to directly
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignResult, error)

	// Open streams the object at key
	Open(ctx context.Context, key string) (*Object, error)

	// PublicURL returns the URL browsers use to read key
	PublicURL(key string) string

	// KeyFromURL recovers the object key from a URL produced by PublicURL
	KeyFromURL(rawURL string) (string, bool)

	IsConfigured() bool
}

type UploadResult struct {
	URL string
	Key string
}

type PresignResult struct {
	UploadURL string
	PublicURL string
}

// Object is an open object stream; the caller must Close it.
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

func (o *Object) Close() error {
	return o.Body.Close()
}

// S3Storage implements Storage for S3-compatible storage
// Works with MinIO, AWS S3, Cloudflare R2, etc.
type S3Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient // signs against the external endpoint
	bucket        string
	publicBase    string
	presignExpiry time.Duration
	configured    bool
}

// S3Config holds configuration for S3 storage
type S3Config struct {
	Region           string
	Bucket           string
	AccessKey        string
	SecretKey        string
	Endpoint         string // Endpoint the server talks to
	ExternalEndpoint string // Endpoint embedded in presigned URLs (browser reachable)
	PublicURL        string // Base for public object URLs; empty or loopback means the proxy route
	PresignExpiry    time.Duration
	AutoCreateBucket bool
}

// New creates an S3-compatible storage instance from app config
func New(ctx context.Context, c *cfg.Config) (*S3Storage, error) {
	slog.Info("initializing S3 storage",
		"bucket", c.S3Bucket,
		"region", c.S3Region,
		"endpoint", c.S3Endpoint,
		"external_endpoint", c.S3ExternalEndpoint,
	)
	return NewS3Storage(ctx, S3Config{
		Region:           c.S3Region,
		Bucket:           c.S3Bucket,
		AccessKey:        c.S3AccessKey,
		SecretKey:        c.S3SecretKey,
		Endpoint:         c.S3Endpoint,
		ExternalEndpoint: c.S3ExternalEndpoint,
		PublicURL:        c.S3PublicURL,
		PresignExpiry:    c.S3PresignExpiry,
		AutoCreateBucket: c.S3AutoCreateBucket,
	})
}

// NewS3Storage creates a new S3 storage instance
func NewS3Storage(ctx context.Context, sc S3Config) (*S3Storage, error) {
	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(sc.Region))

	// Add static credentials if provided
	if sc.AccessKey != "" && sc.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sc.AccessKey, sc.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := newClient(awsCfg, sc.Endpoint)

	external := sc.ExternalEndpoint
	if external == "" {
		external = sc.Endpoint
	}
	presignClient := s3.NewPresignClient(newClient(awsCfg, external))

	expiry := sc.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	storage := &S3Storage{
		client:        client,
		presignClient: presignClient,
		bucket:        sc.Bucket,
		publicBase:    publicBase(sc.PublicURL),
		presignExpiry: expiry,
		configured:    sc.Endpoint != "" && sc.AccessKey != "" && sc.SecretKey != "",
	}

	if sc.AutoCreateBucket && storage.configured {
		if err := storage.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
		}
	}

	return storage, nil
}

func newClient(awsCfg aws.Config, endpoint string) *s3.Client {
	if endpoint == "" {
		return s3.NewFromConfig(awsCfg)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true // Required for MinIO and some S3-compatible services
	})
}

// publicBase picks the URL prefix for stored objects. A missing or loopback public URL
// would be unreachable from other devices, so objects are served through the proxy route instead.
func publicBase(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" || isLoopback(raw) {
		return ProxyPrefix
	}
	return raw
}

func isLoopback(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.Contains(raw, "localhost")
	}
	host := u.Hostname()
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// EnsureBucket checks if bucket exists, creates it if not
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil // Bucket exists
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %q does not exist and could not be created: %w", s.bucket, err)
	}

	slog.Info("created S3 bucket", "bucket", s.bucket)
	return nil
}

func (s *S3Storage) IsConfigured() bool {
	return s.configured
}

// Upload stores an object in S3
func (s *S3Storage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*UploadResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{URL: s.PublicURL(key), Key: key}, nil
}

// Delete removes an object from S3
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if !s.configured {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// PresignUpload signs a PUT for key against the external endpoint. ttl <= 0 uses the configured expiry.
func (s *S3Storage) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if ttl <= 0 {
		ttl = s.presignExpiry
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignResult{UploadURL: req.URL, PublicURL: s.PublicURL(key)}, nil
}

// Open streams an object from S3. Missing objects return ErrNotFound.
func (s *S3Storage) Open(ctx context.Context, key string) (*Object, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read from S3: %w", err)
	}

	obj := &Object{
		Body:          out.Body,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
	}
	if obj.ContentType == "" {
		obj.ContentType = "application/octet-stream"
	}
	return obj, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}

// PublicURL returns the browser-facing URL for key
func (s *S3Storage) PublicURL(key string) string {
	return s.publicBase + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL reverses PublicURL. It also accepts direct bucket URLs
// (http://minio:9000/<bucket>/<key>), dropping the bucket segment.
func (s *S3Storage) KeyFromURL(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}

	if s.publicBase != ProxyPrefix && strings.HasPrefix(rawURL, s.publicBase+"/") {
		return cleanKey(strings.TrimPrefix(rawURL, s.publicBase+"/"))
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	path := u.Path
	if u.Host == "" && !strings.HasPrefix(path, "/") {
		return "", false
	}

	if rest, ok := strings.CutPrefix(path, ProxyPrefix+"/"); ok {
		return cleanKey(rest)
	}

	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(parts) > 0 && parts[0] == s.bucket {
		parts = parts[1:]
	}
	return cleanKey(strings.Join(parts, "/"))
}

func cleanKey(key string) (string, bool) {
	key = strings.Trim(key, "/")
	if key == "" {
		return "", false
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	return key, true
}
