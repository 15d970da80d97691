package service

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/opchan-dev/opchan/internal/domain"
	internal_errors "github.com/opchan-dev/opchan/internal/errors"
	"github.com/opchan-dev/opchan/internal/logger"
	"github.com/opchan-dev/opchan/internal/validation"
)

const (
	uploadsDir = "uploads"
	thumbsDir  = "thumbs"

	jpegQuality = 90
)

// AttachmentStore persists a validated upload and returns a stable reference.
// to mock service in tests
type AttachmentStore interface {
	Store(pending *domain.PendingImage) (*domain.Attachment, error)
	Remove(att *domain.Attachment) error
}

type Attachment struct {
	media           MediaStorage
	maxDecodedBytes int64
	thumbMaxSize    int
}

func NewAttachment(media MediaStorage, maxDecodedBytes int64, thumbMaxSize int) *Attachment {
	return &Attachment{media: media, maxDecodedBytes: maxDecodedBytes, thumbMaxSize: thumbMaxSize}
}

// Store writes the upload verbatim plus a bounded thumbnail under UUID
// filenames and returns the attachment with its public refs. The full image
// keeps its original bytes so the ref always resolves back to exactly what
// was uploaded; no other component mutates the stored bytes afterwards.
func (a *Attachment) Store(pending *domain.PendingImage) (*domain.Attachment, error) {
	// Check decoded size before decoding. Dimensions come from the
	// validation layer's DecodeConfig pass, so this costs nothing.
	w, h := int64(pending.Width), int64(pending.Height)
	if w*h*4 > a.maxDecodedBytes {
		return nil, &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("image too large: %dx%d pixels", pending.Width, pending.Height),
			StatusCode: http.StatusBadRequest,
		}
	}

	data, err := io.ReadAll(pending.Data)
	if err != nil {
		return nil, &internal_errors.StorageError{Op: "read upload", Err: err}
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", validation.ErrUnsupportedFormat, err)
	}

	filename := uuid.NewString() + ".jpg"

	filePath, err := a.media.Save(bytes.NewReader(data), uploadsDir, filename)
	if err != nil {
		return nil, &internal_errors.StorageError{Op: "save attachment", Err: err}
	}

	var thumb bytes.Buffer
	if err := jpeg.Encode(&thumb, scaleToFit(img, a.thumbMaxSize), &jpeg.Options{Quality: jpegQuality}); err != nil {
		a.removeFile(filePath)
		return nil, &internal_errors.StorageError{Op: "encode thumbnail", Err: err}
	}

	thumbPath, err := a.media.Save(bytes.NewReader(thumb.Bytes()), thumbsDir, filename)
	if err != nil {
		a.removeFile(filePath)
		return nil, &internal_errors.StorageError{Op: "save thumbnail", Err: err}
	}

	bounds := img.Bounds()
	return &domain.Attachment{
		Ref:       "/" + uploadsDir + "/" + filename,
		ThumbRef:  "/" + thumbsDir + "/" + filename,
		FilePath:  filePath,
		ThumbPath: thumbPath,
		MimeType:  "image/jpeg",
		SizeBytes: int64(len(data)),
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
	}, nil
}

// Remove deletes the stored files backing an attachment. Used to roll back
// when the owning thread fails to commit, so no unreferenced bytes linger.
func (a *Attachment) Remove(att *domain.Attachment) error {
	var firstErr error
	for _, p := range []string{att.FilePath, att.ThumbPath} {
		if p == "" {
			continue
		}
		if err := a.media.Delete(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *Attachment) removeFile(path string) {
	if err := a.media.Delete(path); err != nil {
		logger.Log.Error("failed to remove orphaned attachment file", "path", path, "error", err)
	}
}

// scaleToFit scales img down so neither dimension exceeds maxSize, preserving
// aspect ratio. Images already within bounds are returned as-is.
func scaleToFit(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(max(w, h))
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
