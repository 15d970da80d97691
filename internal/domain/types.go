package domain

type (
	ThreadId    = int64
	ThreadTitle = string
	MsgText     = string

	// AttachmentRef is the stable, view-facing handle of a stored image,
	// e.g. "/uploads/3f2a....jpg".
	AttachmentRef = string
)

// Content bounds enforced before a record is admitted to storage.
const (
	MaxTitleLen   = 75
	MaxMessageLen = 8000
)
