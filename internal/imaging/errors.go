package imaging

import "errors"

var (
	// ErrEmptyImage is returned when a RawImage is built from zero bytes.
	ErrEmptyImage = errors.New("empty captcha image")

	// ErrUnsupportedFormat is returned when the image bytes cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported captcha image format")
)
