package api

import (
	"time"

	"github.com/opchan-dev/opchan/internal/domain"
)

// Request DTOs

type CreateThreadRequest struct {
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// Response DTOs

// ThreadResponse is exactly the shape the view iterates over: image_url is
// absent (not null) for threads without an image.
type ThreadResponse struct {
	Id        domain.ThreadId `json:"id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	ImageURL  *string         `json:"image_url,omitempty"`
	ThumbURL  *string         `json:"thumb_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ThreadListResponse carries one page plus the pagination metadata the view
// branches on. Threads is always a JSON array, never null, so the empty
// listing is distinguishable from an error.
type ThreadListResponse struct {
	Threads     []ThreadResponse `json:"threads"`
	CurrentPage int              `json:"current_page"`
	TotalPages  int              `json:"total_pages"`
}

func NewThreadResponse(t domain.Thread) ThreadResponse {
	resp := ThreadResponse{
		Id:        t.Id,
		Title:     t.Title,
		Message:   t.Message,
		CreatedAt: t.CreatedAt,
	}
	if t.Image != nil {
		imageURL := t.Image.Ref
		thumbURL := t.Image.ThumbRef
		resp.ImageURL = &imageURL
		resp.ThumbURL = &thumbURL
	}
	return resp
}

func NewThreadListResponse(page domain.ThreadPage) ThreadListResponse {
	threads := make([]ThreadResponse, 0, len(page.Threads))
	for _, t := range page.Threads {
		threads = append(threads, NewThreadResponse(t))
	}
	return ThreadListResponse{
		Threads:     threads,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
	}
}
