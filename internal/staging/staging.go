// Package staging turns image references given on the command line into
// something the backend can fetch: remote URLs pass through, local files are
// uploaded to MinIO when it is configured and inlined as data URLs otherwise.
package staging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/strrl/copycat/internal/config"
)

// Uploader stores one local file and returns a URL for it
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Stager resolves image references
type Stager struct {
	uploader Uploader
	logger   *zap.Logger
}

// New builds a stager from cfg. Without a MinIO endpoint local files are
// inlined.
func New(cfg config.MinIOConfig, logger *zap.Logger) (*Stager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled() {
		return &Stager{uploader: Inline{}, logger: logger}, nil
	}
	up, err := NewMinIO(cfg)
	if err != nil {
		return nil, err
	}
	return &Stager{uploader: up, logger: logger}, nil
}

// NewWithUploader builds a stager around a custom uploader
func NewWithUploader(up Uploader, logger *zap.Logger) *Stager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stager{uploader: up, logger: logger}
}

// Resolve returns one fetchable URL per reference, in order
func (s *Stager) Resolve(ctx context.Context, refs []string) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if isRemote(ref) {
			out = append(out, ref)
			continue
		}

		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", ref, err)
		}
		contentType := contentTypeOf(ref, data)
		if !strings.HasPrefix(contentType, "image/") {
			return nil, fmt.Errorf("%s is not an image (%s)", ref, contentType)
		}

		u, err := s.uploader.Upload(ctx, objectName(ref), data, contentType)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("staged image", zap.String("path", ref), zap.Int("size", len(data)))
		out = append(out, u)
	}
	return out, nil
}

func isRemote(ref string) bool {
	if strings.HasPrefix(ref, "data:") {
		return true
	}
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func contentTypeOf(path string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

func objectName(path string) string {
	return time.Now().UTC().Format("2006/01/02/") + uuid.NewString() + strings.ToLower(filepath.Ext(path))
}

// Inline encodes files as base64 data URLs
type Inline struct{}

func (Inline) Upload(_ context.Context, _ string, data []byte, contentType string) (string, error) {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// MinIO uploads files to a bucket and hands out presigned GET URLs
type MinIO struct {
	mc     *minio.Client
	bucket string
	expiry time.Duration
}

func NewMinIO(cfg config.MinIOConfig) (*MinIO, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &MinIO{mc: mc, bucket: cfg.Bucket, expiry: expiry}, nil
}

// EnsureBucket creates the bucket if it does not exist yet
func (m *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := m.mc.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.mc.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	return nil
}

func (m *MinIO) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := m.EnsureBucket(ctx); err != nil {
		return "", err
	}

	_, err := m.mc.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", m.bucket, name, err)
	}

	u, err := m.mc.PresignedGetObject(ctx, m.bucket, name, m.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", m.bucket, name, err)
	}
	return u.String(), nil
}
