package validation

import (
	"fmt"
	"image/jpeg"
	"io"
	"mime/multipart"

	"github.com/opchan-dev/opchan/internal/domain"
)

// jpegMagic is the JPEG SOI marker every JFIF/EXIF file starts with.
var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// ValidateImage checks that an uploaded file really is a JPEG and returns a
// PendingImage ready for the attachment service, plus a cleanup func that
// closes the underlying file.
//
// The declared Content-Type is deliberately ignored for the accept/reject
// decision: the reference ends up inside an img tag, so the payload itself is
// sniffed (magic bytes, then a header decode for dimensions).
func ValidateImage(fileHeader *multipart.FileHeader) (*domain.PendingImage, func(), error) {
	if fileHeader.Size == 0 {
		return nil, nil, fmt.Errorf("%w (file: %s)", ErrEmptyPayload, fileHeader.Filename)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	cleanup := func() { file.Close() }

	magic := make([]byte, len(jpegMagic))
	if _, err := io.ReadFull(file, magic); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%w: truncated payload (file: %s)", ErrUnsupportedFormat, fileHeader.Filename)
	}
	for i, b := range jpegMagic {
		if magic[i] != b {
			cleanup()
			return nil, nil, fmt.Errorf("%w: not a JPEG (file: %s)", ErrUnsupportedFormat, fileHeader.Filename)
		}
	}
	if _, err := file.Seek(0, 0); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to rewind uploaded file: %w", err)
	}

	// DecodeConfig reads only the header, so this stays cheap even for large
	// files, and catches payloads that fake the magic bytes.
	cfg, err := jpeg.DecodeConfig(file)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%w: %v (file: %s)", ErrUnsupportedFormat, err, fileHeader.Filename)
	}
	if _, err := file.Seek(0, 0); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to rewind uploaded file: %w", err)
	}

	return &domain.PendingImage{
		Data:      file,
		SizeBytes: fileHeader.Size,
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, cleanup, nil
}
