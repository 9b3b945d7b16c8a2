// Package kv keeps image records in an embedded Badger database.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/itchan-dev/imagestore/backend/internal/service"
	"github.com/itchan-dev/imagestore/shared/domain"
	internal_errors "github.com/itchan-dev/imagestore/shared/errors"
	"github.com/itchan-dev/imagestore/shared/logger"
)

const imagePrefix = "image/"

type Storage struct {
	db *badger.DB
}

var _ service.ImageStorage = (*Storage)(nil)

// New opens (or creates) the database under path.
func New(path string) (*Storage, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory: %w", err)
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	return open(opts)
}

// NewInMemory opens a database that lives only as long as the process.
func NewInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.For("kv").Info("opened record store", "dir", opts.Dir, "in_memory", opts.InMemory)
	return &Storage{db: db}, nil
}

func (s *Storage) Create(ctx context.Context, img domain.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(img)
	if err != nil {
		return fmt.Errorf("failed to marshal image: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := imageKey(img.Id)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("image %s already exists", img.Id)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}

func (s *Storage) FindByID(ctx context.Context, id domain.ImageId) (domain.Image, error) {
	if err := ctx.Err(); err != nil {
		return domain.Image{}, err
	}
	var img domain.Image
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(imageKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return internal_errors.ErrRecordNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &img)
		})
	})
	if err != nil {
		return domain.Image{}, err
	}
	return img, nil
}

func (s *Storage) DeleteByID(ctx context.Context, id domain.ImageId) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := imageKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return internal_errors.ErrRecordNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// Ping reports whether the database is still open.
func (s *Storage) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("record store is closed")
	}
	return ctx.Err()
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

func imageKey(id domain.ImageId) []byte {
	return append([]byte(imagePrefix), id[:]...)
}
