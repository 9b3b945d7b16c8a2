package service

import (
	"context"
	"io"

	"github.com/itchan-dev/imagestore/shared/domain"
)

// FileStorage is the directory stored images live in. Names are plain file names
// relative to the storage root.
type FileStorage interface {
	// Save copies data into name, replacing an existing file of that name.
	Save(name string, data io.Reader) (int64, error)

	// Open opens name for reading and reports its size.
	// Returns errors.ErrFileNotFound if it does not exist.
	Open(name string) (io.ReadSeekCloser, int64, error)

	// Delete removes name. Returns errors.ErrFileNotFound if it does not exist.
	Delete(name string) error
}

// Repository is key-value persistence keyed by K.
// FindByID and DeleteByID return errors.ErrRecordNotFound for unknown keys.
type Repository[K comparable, V any] interface {
	Create(ctx context.Context, v V) error
	FindByID(ctx context.Context, id K) (V, error)
	DeleteByID(ctx context.Context, id K) error
}

// ImageStorage is the image record table.
type ImageStorage = Repository[domain.ImageId, domain.Image]
