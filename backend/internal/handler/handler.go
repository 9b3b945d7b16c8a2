package handler

import (
	"context"
	"net/http"

	"github.com/itchan-dev/imagestore/backend/internal/service"
	"github.com/itchan-dev/imagestore/shared/config"
	"github.com/itchan-dev/imagestore/shared/logger"
)

// HealthChecker reports whether the record store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	image  service.ImageService
	health HealthChecker
	cfg    *config.Config
}

func New(image service.ImageService, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{image: image, health: health, cfg: cfg}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Log.Warn("failed to write response", "error", err)
	}
}
