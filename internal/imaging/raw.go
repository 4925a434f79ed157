package imaging

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG captchas
	"image/png"

	"golang.org/x/crypto/sha3"
)

// RawImage is a captured captcha image: the encoded bytes as delivered by the
// page-capture collaborator plus the dimensions read from the image header.
// A RawImage never changes after construction.
type RawImage struct {
	data   []byte
	width  int
	height int
	format string
}

// NewRawImage validates the encoded image header and returns an immutable
// RawImage holding a private copy of data.
func NewRawImage(data []byte) (RawImage, error) {
	if len(data) == 0 {
		return RawImage{}, ErrEmptyImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return RawImage{}, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return RawImage{
		data:   append([]byte(nil), data...),
		width:  cfg.Width,
		height: cfg.Height,
		format: format,
	}, nil
}

// Width returns the image width in pixels.
func (r RawImage) Width() int { return r.width }

// Height returns the image height in pixels.
func (r RawImage) Height() int { return r.height }

// Format returns the decoder name ("png", "jpeg").
func (r RawImage) Format() string { return r.format }

// Bytes returns a copy of the encoded image.
func (r RawImage) Bytes() []byte { return append([]byte(nil), r.data...) }

// Len returns the encoded size in bytes.
func (r RawImage) Len() int { return len(r.data) }

// Fingerprint returns the fingerprint of the encoded bytes.
func (r RawImage) Fingerprint() string { return Fingerprint(r.data) }

// Fingerprint returns the first 16 hex digits of the SHA3-256 digest of data.
// Identical captures share a fingerprint; data need not decode.
func Fingerprint(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// decode returns the decoded image.
func (r RawImage) decode() (image.Image, error) {
	if len(r.data) == 0 {
		return nil, ErrEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(r.data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return img, nil
}

// Variant is one cleaned rendering of a captcha image. ID names the recipe
// that produced it and doubles as the variant_id in recognition attempts.
type Variant struct {
	ID    string
	Image *image.Gray
}

// Bounds returns the variant's pixel rectangle.
func (v Variant) Bounds() image.Rectangle { return v.Image.Bounds() }

// PNG encodes the variant as PNG. The encoding is deterministic for a given
// pixel buffer.
func (v Variant) PNG() ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, v.Image); err != nil {
		return nil, fmt.Errorf("encode variant %s: %w", v.ID, err)
	}
	return buf.Bytes(), nil
}
