package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"strings"

	// Decoders registered for image.Decode.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/lacereza/storefront/internal/domain"
)

const (
	// DefaultMaxDimension bounds the longer edge of a normalised image.
	DefaultMaxDimension = 1024
	// DefaultQuality is the JPEG quality factor (0.8 on a 0-1 scale).
	DefaultQuality = 80
	// DefaultMaxBytes caps the size of a single upload.
	DefaultMaxBytes int64 = 10 << 20
	// DefaultMaxPixels caps the decoded surface to protect memory.
	DefaultMaxPixels = 40_000_000
	// DefaultConcurrency bounds how many images of a batch are processed at once.
	DefaultConcurrency = 4

	outputMIMEType = "image/jpeg"
)

var (
	// ErrImageRead indicates the upload could not be read.
	ErrImageRead = errors.New("media: image could not be read")
	// ErrImageDecode indicates the content is not a decodable raster image.
	ErrImageDecode = errors.New("media: image could not be decoded")
	// ErrImageRender indicates the off-screen surface or the encoder failed.
	ErrImageRender = errors.New("media: image could not be rendered")
	// ErrImageTooLarge indicates the upload exceeds the byte or pixel limits.
	ErrImageTooLarge = errors.New("media: image too large")
	// ErrUnsupportedImageType indicates the upload is not an image.
	ErrUnsupportedImageType = errors.New("media: unsupported image type")
)

// Source is a single uploaded file awaiting normalisation.
type Source struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// BytesSource wraps an in-memory payload.
func BytesSource(name, contentType string, data []byte) Source {
	return Source{Name: name, ContentType: contentType, Reader: bytes.NewReader(data)}
}

// Image is a normalised JPEG together with its geometry.
type Image struct {
	MIMEType     string
	Data         []byte
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
}

// Ref converts the image into an embedded document reference.
func (i Image) Ref() domain.ImageRef {
	return domain.EmbeddedImage(i.MIMEType, i.Data)
}

type encodeFunc func(io.Writer, image.Image, *jpeg.Options) error

// Normalizer downsizes and re-encodes uploaded images.
type Normalizer struct {
	maxDimension int
	quality      int
	maxBytes     int64
	maxPixels    int
	concurrency  int
	background   color.Color
	scaler       draw.Scaler
	encode       encodeFunc
}

// Option customises a Normalizer.
type Option func(*Normalizer)

// WithMaxDimension overrides the longer edge bound.
func WithMaxDimension(px int) Option {
	return func(n *Normalizer) {
		if px > 0 {
			n.maxDimension = px
		}
	}
}

// WithQuality overrides the JPEG quality (1-100).
func WithQuality(quality int) Option {
	return func(n *Normalizer) {
		if quality >= 1 && quality <= 100 {
			n.quality = quality
		}
	}
}

// WithMaxBytes overrides the upload byte limit.
func WithMaxBytes(limit int64) Option {
	return func(n *Normalizer) {
		if limit > 0 {
			n.maxBytes = limit
		}
	}
}

// WithMaxPixels overrides the decoded pixel limit.
func WithMaxPixels(limit int) Option {
	return func(n *Normalizer) {
		if limit > 0 {
			n.maxPixels = limit
		}
	}
}

// WithConcurrency overrides the batch worker limit.
func WithConcurrency(workers int) Option {
	return func(n *Normalizer) {
		if workers > 0 {
			n.concurrency = workers
		}
	}
}

// WithBackground sets the colour transparent pixels are flattened onto (white by default).
func WithBackground(c color.Color) Option {
	return func(n *Normalizer) {
		if c != nil {
			n.background = c
		}
	}
}

// NewNormalizer constructs a Normalizer with the default 1024px bound and quality 80.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		maxDimension: DefaultMaxDimension,
		quality:      DefaultQuality,
		maxBytes:     DefaultMaxBytes,
		maxPixels:    DefaultMaxPixels,
		concurrency:  DefaultConcurrency,
		background:   color.White,
		scaler:       draw.CatmullRom,
		encode:       jpeg.Encode,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// MaxBytes exposes the per-upload byte limit so transports can bound request bodies.
func (n *Normalizer) MaxBytes() int64 { return n.maxBytes }

// Normalize reads, decodes, downsizes and re-encodes a single image.
func (n *Normalizer) Normalize(ctx context.Context, src Source) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	if src.Reader == nil {
		return Image{}, fmt.Errorf("%w: %s: no content", ErrImageRead, src.Name)
	}

	contentType := strings.ToLower(strings.TrimSpace(src.ContentType))
	if contentType != "" && contentType != "application/octet-stream" && !strings.HasPrefix(contentType, "image/") {
		return Image{}, fmt.Errorf("%w: %s: %s", ErrUnsupportedImageType, src.Name, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(src.Reader, n.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %w", ErrImageRead, src.Name, err)
	}
	if int64(len(data)) > n.maxBytes {
		return Image{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrImageTooLarge, src.Name, n.maxBytes)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: %s: empty file", ErrImageRead, src.Name)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		if sniffed := http.DetectContentType(data); !strings.HasPrefix(sniffed, "image/") && sniffed != "application/octet-stream" {
			return Image{}, fmt.Errorf("%w: %s: detected %s", ErrUnsupportedImageType, src.Name, sniffed)
		}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %w", ErrImageDecode, src.Name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, fmt.Errorf("%w: %s: empty dimensions", ErrImageDecode, src.Name)
	}
	if cfg.Width*cfg.Height > n.maxPixels {
		return Image{}, fmt.Errorf("%w: %s is %dx%d", ErrImageTooLarge, src.Name, cfg.Width, cfg.Height)
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %w", ErrImageDecode, src.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}

	bounds := decoded.Bounds()
	width, height := TargetSize(bounds.Dx(), bounds.Dy(), n.maxDimension)
	surface := n.render(decoded, width, height)

	var buf bytes.Buffer
	if err := n.encode(&buf, surface, &jpeg.Options{Quality: n.quality}); err != nil {
		return Image{}, fmt.Errorf("%w: %s: %w", ErrImageRender, src.Name, err)
	}

	return Image{
		MIMEType:     outputMIMEType,
		Data:         buf.Bytes(),
		Width:        width,
		Height:       height,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
	}, nil
}

func (n *Normalizer) render(src image.Image, width, height int) *image.RGBA {
	surface := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(surface, surface.Bounds(), image.NewUniform(n.background), image.Point{}, draw.Src)

	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		draw.Draw(surface, surface.Bounds(), src, bounds.Min, draw.Over)
		return surface
	}
	n.scaler.Scale(surface, surface.Bounds(), src, bounds, draw.Over, nil)
	return surface
}

// NormalizeBatch normalises every source concurrently. The result at index i always belongs to
// sources[i]. Any failure fails the whole batch and no results are returned.
func (n *Normalizer) NormalizeBatch(ctx context.Context, sources []Source) ([]Image, error) {
	if len(sources) == 0 {
		return []Image{}, nil
	}

	results := make([]Image, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			img, err := n.Normalize(gctx, src)
			if err != nil {
				return err
			}
			results[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TargetSize bounds the longer edge to maxDimension using one scale factor for both axes.
// Images already within the bound keep their size. Scaled edges are truncated and never drop below 1.
func TargetSize(width, height, maxDimension int) (int, int) {
	if maxDimension <= 0 || (width <= maxDimension && height <= maxDimension) {
		return width, height
	}
	if width >= height {
		scaled := int(float64(height) * float64(maxDimension) / float64(width))
		return maxDimension, max(scaled, 1)
	}
	scaled := int(float64(width) * float64(maxDimension) / float64(height))
	return max(scaled, 1), maxDimension
}
