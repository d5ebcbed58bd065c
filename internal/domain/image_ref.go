package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	dataURLPrefix   = "data:"
	dataURLBase64   = ";base64,"
	linkedURLPrefix = "http"
)

// ImageKind discriminates the three shapes an ImageRef can take.
type ImageKind int

const (
	// ImageKindGlyph is a short text glyph such as an emoji. The zero ImageRef is an empty glyph.
	ImageKindGlyph ImageKind = iota
	// ImageKindLinked is an externally hosted image referenced by URL.
	ImageKindLinked
	// ImageKindEmbedded is a self-contained raster image carried inline.
	ImageKindEmbedded
)

// String returns the lowercase name used in API payloads.
func (k ImageKind) String() string {
	switch k {
	case ImageKindLinked:
		return "linked"
	case ImageKindEmbedded:
		return "embedded"
	default:
		return "glyph"
	}
}

// ImageRef is an explicit tagged variant over glyph, linked and embedded images.
// Values are immutable once constructed; embedded bytes must not be modified by callers.
//
// Stored documents carry the legacy single-string form, where the variant is implied by prefix:
// "data:" is embedded, "http" is linked, anything else is a glyph. ParseImageRef and String convert
// between the two at the serialization edge.
type ImageRef struct {
	kind     ImageKind
	text     string
	mimeType string
	data     []byte
}

// Glyph constructs a glyph reference.
func Glyph(text string) ImageRef {
	return ImageRef{kind: ImageKindGlyph, text: text}
}

// LinkedImage constructs a reference to an external image URL.
func LinkedImage(url string) ImageRef {
	return ImageRef{kind: ImageKindLinked, text: url}
}

// EmbeddedImage constructs an inline image from its MIME type and encoded bytes.
func EmbeddedImage(mimeType string, data []byte) ImageRef {
	return ImageRef{kind: ImageKindEmbedded, mimeType: strings.TrimSpace(mimeType), data: data}
}

// ParseImageRef decodes the legacy prefix-tagged string form. A "data:" string that is not a
// well-formed base64 data URL is kept verbatim as a glyph so that no stored value is lost.
func ParseImageRef(value string) ImageRef {
	switch {
	case strings.HasPrefix(value, dataURLPrefix):
		mimeType, data, ok := parseDataURL(value)
		if !ok {
			return Glyph(value)
		}
		return EmbeddedImage(mimeType, data)
	case strings.HasPrefix(value, linkedURLPrefix):
		return LinkedImage(value)
	default:
		return Glyph(value)
	}
}

func parseDataURL(value string) (string, []byte, bool) {
	rest := strings.TrimPrefix(value, dataURLPrefix)
	idx := strings.Index(rest, dataURLBase64)
	if idx <= 0 {
		return "", nil, false
	}
	mimeType := rest[:idx]
	data, err := base64.StdEncoding.DecodeString(rest[idx+len(dataURLBase64):])
	if err != nil {
		return "", nil, false
	}
	return mimeType, data, true
}

// Kind reports the variant.
func (r ImageRef) Kind() ImageKind { return r.kind }

// IsImage reports whether the reference points at raster content rather than a glyph.
func (r ImageRef) IsImage() bool { return r.kind != ImageKindGlyph }

// Text returns the glyph text or the URL; empty for embedded images.
func (r ImageRef) Text() string {
	if r.kind == ImageKindEmbedded {
		return ""
	}
	return r.text
}

// MIMEType returns the MIME type of an embedded image.
func (r ImageRef) MIMEType() string { return r.mimeType }

// Data returns the encoded bytes of an embedded image.
func (r ImageRef) Data() []byte { return r.data }

// Size reports the number of bytes the legacy string form occupies.
func (r ImageRef) Size() int {
	if r.kind != ImageKindEmbedded {
		return len(r.text)
	}
	return len(dataURLPrefix) + len(r.mimeType) + len(dataURLBase64) + base64.StdEncoding.EncodedLen(len(r.data))
}

// String renders the legacy single-string representation.
func (r ImageRef) String() string {
	if r.kind != ImageKindEmbedded {
		return r.text
	}
	var b strings.Builder
	b.Grow(r.Size())
	b.WriteString(dataURLPrefix)
	b.WriteString(r.mimeType)
	b.WriteString(dataURLBase64)
	b.WriteString(base64.StdEncoding.EncodeToString(r.data))
	return b.String()
}

// Equal reports whether two references describe the same image.
func (r ImageRef) Equal(other ImageRef) bool {
	if r.kind != other.kind {
		return false
	}
	if r.kind != ImageKindEmbedded {
		return r.text == other.text
	}
	return r.mimeType == other.mimeType && string(r.data) == string(other.data)
}

// MarshalJSON encodes the reference in its legacy string form.
func (r ImageRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes the legacy string form. JSON null yields an empty glyph.
func (r *ImageRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ImageRef{}
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("image reference must be a string: %w", err)
	}
	*r = ParseImageRef(value)
	return nil
}

func cloneImageRefs(refs []ImageRef) []ImageRef {
	out := make([]ImageRef, len(refs))
	copy(out, refs)
	return out
}
