package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	domain "github.com/lacereza/storefront/internal/domain"
	"github.com/lacereza/storefront/internal/media"
	"github.com/lacereza/storefront/internal/platform/storage"
)

// NewInlineMediaSink keeps images inside the document as data URLs.
func NewInlineMediaSink() MediaSink {
	return inlineMediaSink{}
}

type inlineMediaSink struct{}

func (inlineMediaSink) Store(_ context.Context, _ MediaTarget, img media.Image) (ImageRef, error) {
	if len(img.Data) == 0 {
		return ImageRef{}, errors.New("media sink: empty image")
	}
	return img.Ref(), nil
}

// ObjectUploader writes an object and returns the URL it is served from.
type ObjectUploader interface {
	Upload(ctx context.Context, object, contentType string, data []byte) (string, error)
}

// BucketMediaSinkDeps wires the bucket-backed sink.
type BucketMediaSinkDeps struct {
	Uploader ObjectUploader
	UploadID func() string
	Logger   func(context.Context, string, map[string]any)
}

type bucketMediaSink struct {
	uploader ObjectUploader
	uploadID func() string
	logger   func(context.Context, string, map[string]any)
}

// NewBucketMediaSink uploads normalised images to object storage and stores their public URL in the
// document instead of the bytes.
func NewBucketMediaSink(deps BucketMediaSinkDeps) (MediaSink, error) {
	if deps.Uploader == nil {
		return nil, errors.New("media sink: uploader is required")
	}
	uploadID := deps.UploadID
	if uploadID == nil {
		uploadID = func() string { return strings.ToLower(ulid.Make().String()) }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &bucketMediaSink{uploader: deps.Uploader, uploadID: uploadID, logger: logger}, nil
}

func (s *bucketMediaSink) Store(ctx context.Context, target MediaTarget, img media.Image) (ImageRef, error) {
	if len(img.Data) == 0 {
		return ImageRef{}, errors.New("media sink: empty image")
	}
	purpose, err := storagePurpose(target.Purpose)
	if err != nil {
		return ImageRef{}, err
	}
	params := storage.PathParams{UploadID: s.uploadID(), FileName: "image.jpg"}
	if target.ProductID > 0 {
		params.ProductID = strconv.FormatInt(target.ProductID, 10)
	}
	object, err := storage.BuildObjectPath(purpose, params)
	if err != nil {
		return ImageRef{}, fmt.Errorf("media sink: %w", err)
	}
	url, err := s.uploader.Upload(ctx, object, img.MIMEType, img.Data)
	if err != nil {
		return ImageRef{}, err
	}
	s.logger(ctx, "store.media.uploaded", map[string]any{
		"purpose": string(target.Purpose),
		"object":  object,
		"bytes":   len(img.Data),
	})
	return domain.LinkedImage(url), nil
}

func storagePurpose(purpose MediaPurpose) (storage.AssetPurpose, error) {
	switch purpose {
	case MediaPurposeLogo:
		return storage.PurposeLogo, nil
	case MediaPurposeFeaturedImage:
		return storage.PurposeFeaturedImage, nil
	case MediaPurposeFeaturedGallery:
		return storage.PurposeFeaturedGallery, nil
	case MediaPurposeProductImage:
		return storage.PurposeProductImage, nil
	case MediaPurposeProductGallery:
		return storage.PurposeProductGallery, nil
	default:
		return "", fmt.Errorf("media sink: unknown purpose %q", purpose)
	}
}
