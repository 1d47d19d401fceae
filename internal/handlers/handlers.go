package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"simfinder/internal/coordinator"
	"simfinder/internal/media"
	"simfinder/internal/startup"
)

type Handlers struct {
	coord    *coordinator.Coordinator
	thumbGen *media.ThumbnailGenerator
}

func New(coord *coordinator.Coordinator, config *startup.Config) *Handlers {
	return &Handlers{
		coord:    coord,
		thumbGen: media.NewThumbnailGenerator(config.ThumbnailDir, config.ThumbnailsEnabled),
	}
}

// MetricsHandler exposes the Prometheus registry for the metrics port.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
