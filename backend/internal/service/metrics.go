package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	imagesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagestore",
			Name:      "images_stored_total",
			Help:      "Images written to storage, by upload flow and media type",
		},
		[]string{"flow", "media_type"},
	)

	imageBytesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "imagestore",
			Name:      "image_bytes_stored_total",
			Help:      "Bytes copied into the storage directory",
		},
	)

	imagesDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagestore",
			Name:      "images_deleted_total",
			Help:      "Image records removed, by reason (delete or replace)",
		},
		[]string{"reason"},
	)

	fileCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "imagestore",
			Name:      "file_cleanup_failures_total",
			Help:      "Stored files that could not be removed during delete or replace",
		},
	)
)
