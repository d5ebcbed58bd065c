package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
)

const (
	defaultPublicBaseURL = "https://storage.googleapis.com"
	mediaCacheControl    = "public, max-age=31536000, immutable"
)

// ObjectWriter receives object bytes. *storage.Writer satisfies it.
type ObjectWriter interface {
	io.Writer
	Close() error
}

// WriterFactory opens a writer for bucket/object with the given content type.
type WriterFactory func(ctx context.Context, bucket, object, contentType string) ObjectWriter

// Uploader writes public media objects to a Cloud Storage bucket.
type Uploader struct {
	bucket    string
	baseURL   string
	newWriter WriterFactory
}

// UploaderOption customises uploader behaviour.
type UploaderOption func(*Uploader)

// WithPublicBaseURL overrides the URL prefix used for uploaded objects (for a CDN in front of the bucket).
func WithPublicBaseURL(base string) UploaderOption {
	return func(u *Uploader) {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			u.baseURL = trimmed
		}
	}
}

// WithWriterFactory replaces the Cloud Storage writer, mainly for tests.
func WithWriterFactory(factory WriterFactory) UploaderOption {
	return func(u *Uploader) {
		if factory != nil {
			u.newWriter = factory
		}
	}
}

// NewUploader constructs an Uploader backed by the provided Cloud Storage client.
func NewUploader(client *gcs.Client, bucket string, opts ...UploaderOption) (*Uploader, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	u := &Uploader{bucket: bucket}
	if client != nil {
		u.newWriter = func(ctx context.Context, bucket, object, contentType string) ObjectWriter {
			w := client.Bucket(bucket).Object(object).NewWriter(ctx)
			w.ContentType = contentType
			w.CacheControl = mediaCacheControl
			return w
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	if u.newWriter == nil {
		return nil, errors.New("storage uploader: client is required")
	}
	if u.baseURL == "" {
		u.baseURL = defaultPublicBaseURL + "/" + bucket
	}
	return u, nil
}

// Upload writes data to object and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, object, contentType string, data []byte) (string, error) {
	if u == nil || u.newWriter == nil {
		return "", errors.New("storage uploader: not initialised")
	}
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errInvalidObject
	}
	if strings.TrimSpace(contentType) == "" {
		return "", errContentTypeMissing
	}

	w := u.newWriter(ctx, u.bucket, object, contentType)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage uploader: write %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage uploader: finalize %s: %w", object, err)
	}
	return u.PublicURL(object), nil
}

// PublicURL returns the URL an object is served from.
func (u *Uploader) PublicURL(object string) string {
	return u.baseURL + "/" + strings.TrimLeft(object, "/")
}

var (
	errInvalidBucket      = errors.New("storage: bucket name is required")
	errInvalidObject      = errors.New("storage: object name is required")
	errContentTypeMissing = errors.New("storage: content type is required for uploads")
)
