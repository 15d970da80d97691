package validation

import "errors"

// ErrPayloadTooLarge is returned when the request body exceeds size limits
var ErrPayloadTooLarge = errors.New("payload too large")

// ErrUnsupportedFormat is returned when an uploaded file is not a real JPEG
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrEmptyPayload is returned when an image field was submitted with no bytes
var ErrEmptyPayload = errors.New("empty image payload")
