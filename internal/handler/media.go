package handler

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ServeUpload streams a stored full-size image.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	h.serveMedia(w, r, "uploads")
}

// ServeThumb streams a stored thumbnail.
func (h *Handler) ServeThumb(w http.ResponseWriter, r *http.Request) {
	h.serveMedia(w, r, "thumbs")
}

func (h *Handler) serveMedia(w http.ResponseWriter, r *http.Request, subdir string) {
	filename := chi.URLParam(r, "file")
	if filename == "" || strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		http.Error(w, "invalid attachment name", http.StatusBadRequest)
		return
	}

	file, err := h.media.Read(path.Join(subdir, filename))
	if err != nil {
		http.Error(w, "attachment not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	// Stored attachments are immutable, so clients may cache forever.
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	io.Copy(w, file)
}
