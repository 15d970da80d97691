package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opchan-dev/opchan/internal/api"
	"github.com/opchan-dev/opchan/internal/domain"
	"github.com/opchan-dev/opchan/internal/validation"
)

const defaultPage = 1

// CreateThread accepts a multipart form with title, message and an optional
// single JPEG image field.
func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	maxRequestSize := validation.CalculateMaxRequestSize(h.cfg.Public.MaxAttachmentBytes, 1<<20)
	if err := validation.ValidateAndParseMultipart(r, w, maxRequestSize); err != nil {
		maxSizeMB := validation.FormatSizeMB(h.cfg.Public.MaxAttachmentBytes)
		err = fmt.Errorf("%w: upload exceeds the limit of %.0f MB", validation.ErrPayloadTooLarge, maxSizeMB)
		writeErrorAndStatusCode(w, err)
		return
	}

	body := api.CreateThreadRequest{
		Title:   r.FormValue("title"),
		Message: r.FormValue("message"),
	}
	if err := validateStruct(&body); err != nil {
		writeErrorAndStatusCode(w, err)
		return
	}

	var pending *domain.PendingImage
	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		if len(files) > 1 {
			http.Error(w, "only a single image is allowed", http.StatusBadRequest)
			return
		}
		image, cleanup, err := validation.ValidateImage(files[0])
		if err != nil {
			writeErrorAndStatusCode(w, err)
			return
		}
		defer cleanup()
		pending = image
	}

	thread, err := h.thread.Create(domain.ThreadCreationData{
		Title:   body.Title,
		Message: body.Message,
		Image:   pending,
	})
	if err != nil {
		writeErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, api.NewThreadResponse(thread))
}

// ListThreads returns one page of threads, newest first. An absent or
// non-numeric page parameter means page 1; out-of-range pages are clamped.
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	page := defaultPage
	if pageQuery := r.URL.Query().Get("page"); pageQuery != "" {
		if parsed, err := parseIntParam(pageQuery, "page"); err == nil {
			page = parsed
		}
	}

	threadPage, err := h.thread.List(page)
	if err != nil {
		writeErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.NewThreadListResponse(threadPage))
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadId, err := parseIntParam(chi.URLParam(r, "thread"), "thread ID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	thread, err := h.thread.Get(domain.ThreadId(threadId))
	if err != nil {
		writeErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.NewThreadResponse(thread))
}
