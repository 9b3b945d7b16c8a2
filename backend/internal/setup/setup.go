package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/itchan-dev/imagestore/backend/internal/handler"
	"github.com/itchan-dev/imagestore/backend/internal/service"
	"github.com/itchan-dev/imagestore/backend/internal/storage/fs"
	"github.com/itchan-dev/imagestore/backend/internal/storage/kv"
	"github.com/itchan-dev/imagestore/backend/internal/storage/pg"
	"github.com/itchan-dev/imagestore/shared/config"
	"github.com/itchan-dev/imagestore/shared/middleware/ratelimiter"
)

const uploadLimiterExpiration = time.Hour

// RecordStore is an image record backend the server can probe and close.
type RecordStore interface {
	service.ImageStorage
	handler.HealthChecker
	Cleanup() error
}

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Records RecordStore
	Files   *fs.Storage
	Handler *handler.Handler
	// nil when upload rate limiting is disabled
	UploadLimiter *ratelimiter.UserRateLimiter
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	files, err := fs.New(cfg.Public.UploadPath)
	if err != nil {
		return nil, err
	}

	records, err := NewRecordStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	image := service.NewImage(records, files)

	return &Dependencies{
		Config:        cfg,
		Records:       records,
		Files:         files,
		Handler:       handler.New(image, records, cfg),
		UploadLimiter: NewUploadLimiter(cfg),
	}, nil
}

// NewRecordStore opens the backend selected by record_store.
func NewRecordStore(ctx context.Context, cfg *config.Config) (RecordStore, error) {
	switch cfg.Public.RecordStore {
	case config.RecordStorePostgres:
		storage, err := pg.New(ctx, cfg.Private.Pg)
		if err != nil {
			return nil, err
		}
		return storage, nil
	case config.RecordStoreBadger:
		storage, err := kv.New(cfg.Public.BadgerPath)
		if err != nil {
			return nil, err
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown record store %q", cfg.Public.RecordStore)
	}
}

// NewUploadLimiter returns nil when upload_rate_limit is 0.
func NewUploadLimiter(cfg *config.Config) *ratelimiter.UserRateLimiter {
	if cfg.Public.UploadRateLimit <= 0 {
		return nil
	}
	burst := cfg.Public.UploadBurst
	if burst < 1 {
		burst = 1
	}
	return ratelimiter.New(cfg.Public.UploadRateLimit, burst, uploadLimiterExpiration)
}

func (d *Dependencies) Cleanup() error {
	if d.UploadLimiter != nil {
		d.UploadLimiter.Stop()
	}
	return d.Records.Cleanup()
}
