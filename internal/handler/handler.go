package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/opchan-dev/opchan/internal/config"
	"github.com/opchan-dev/opchan/internal/service"
)

// HealthChecker reports whether the storage backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	thread service.ThreadService
	media  service.MediaStorage
	health HealthChecker
	cfg    *config.Config
}

func New(thread service.ThreadService, media service.MediaStorage, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{thread, media, health, cfg}
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Print(err.Error())
	}
}
