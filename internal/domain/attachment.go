package domain

import "io"

// Attachment represents a stored image owned by exactly one thread.
// Immutable after a successful store.
type Attachment struct {
	Id        int64
	Ref       AttachmentRef // public URL path of the full image
	ThumbRef  AttachmentRef // public URL path of the scaled thumbnail
	FilePath  string        // path relative to the media root
	ThumbPath string
	MimeType  string
	SizeBytes int64
	Width     int
	Height    int
}

// PendingImage is a validated upload that has not been persisted yet.
// Dimensions come from the validation layer's DecodeConfig pass.
type PendingImage struct {
	Data      io.Reader
	SizeBytes int64
	Width     int
	Height    int
}
