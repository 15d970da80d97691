package service

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/opchan-dev/opchan/internal/domain"
	internal_errors "github.com/opchan-dev/opchan/internal/errors"
	"github.com/opchan-dev/opchan/internal/pagination"
)

// to mock service in tests
type ThreadService interface {
	Create(data domain.ThreadCreationData) (domain.Thread, error)
	List(page int) (domain.ThreadPage, error)
	Get(id domain.ThreadId) (domain.Thread, error)
}

type Thread struct {
	storage     ThreadStorage
	attachments AttachmentStore
	pages       *pagination.Engine
	sanitizer   *bluemonday.Policy
}

type ThreadStorage interface {
	// CreateThread atomically assigns the next identifier and persists the
	// record. A failed write never consumes an identifier a later write
	// could reuse.
	CreateThread(title domain.ThreadTitle, message domain.MsgText, image *domain.Attachment) (domain.Thread, error)
	// ThreadCount returns the total number of stored threads.
	ThreadCount() (int, error)
	// Threads returns the slice [offset, offset+limit) of threads in
	// canonical order (newest first). Out-of-range offsets yield an empty
	// slice, not an error.
	Threads(offset, limit int) ([]domain.Thread, error)
	GetThread(id domain.ThreadId) (domain.Thread, error)
}

func NewThread(storage ThreadStorage, attachments AttachmentStore, pages *pagination.Engine) *Thread {
	return &Thread{storage, attachments, pages, bluemonday.StrictPolicy()}
}

// Create validates and persists a new thread. Text is sanitized before the
// bounds check so the stored value always satisfies its invariants. If the
// thread row fails to commit, any already-stored attachment is removed so no
// dangling reference survives.
func (t *Thread) Create(data domain.ThreadCreationData) (domain.Thread, error) {
	title := strings.TrimSpace(t.sanitizer.Sanitize(data.Title))
	message := strings.TrimSpace(t.sanitizer.Sanitize(data.Message))

	if err := validateTitle(title); err != nil {
		return domain.Thread{}, err
	}
	if err := validateMessage(message); err != nil {
		return domain.Thread{}, err
	}

	var att *domain.Attachment
	if data.Image != nil {
		stored, err := t.attachments.Store(data.Image)
		if err != nil {
			return domain.Thread{}, err
		}
		att = stored
	}

	thread, err := t.storage.CreateThread(title, message, att)
	if err != nil {
		if att != nil {
			t.attachments.Remove(att)
		}
		return domain.Thread{}, err
	}
	return thread, nil
}

// List returns one page of threads, newest first. Out-of-range pages are
// clamped; an empty store yields an empty page 1 of 1.
func (t *Thread) List(page int) (domain.ThreadPage, error) {
	total, err := t.storage.ThreadCount()
	if err != nil {
		return domain.ThreadPage{}, err
	}

	p := t.pages.Paginate(total, page)

	threads, err := t.storage.Threads(p.Offset, p.Limit)
	if err != nil {
		return domain.ThreadPage{}, err
	}
	if threads == nil {
		threads = []domain.Thread{}
	}

	return domain.ThreadPage{
		Threads:     threads,
		CurrentPage: p.CurrentPage,
		TotalPages:  p.TotalPages,
	}, nil
}

func (t *Thread) Get(id domain.ThreadId) (domain.Thread, error) {
	return t.storage.GetThread(id)
}

func validateTitle(title domain.ThreadTitle) error {
	if title == "" {
		return &internal_errors.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLen {
		return &internal_errors.ValidationError{Field: "title", Reason: "must be at most 75 characters"}
	}
	return nil
}

func validateMessage(message domain.MsgText) error {
	if message == "" {
		return &internal_errors.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(message) > domain.MaxMessageLen {
		return &internal_errors.ValidationError{Field: "message", Reason: "must be at most 8000 characters"}
	}
	return nil
}
