package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/imagestore/shared/domain"
	internal_errors "github.com/itchan-dev/imagestore/shared/errors"
	sharedpg "github.com/itchan-dev/imagestore/shared/storage/pg"
)

// =========================================================================
// Public Methods (satisfy the service.ImageStorage interface)
// =========================================================================

func (s *Storage) Create(ctx context.Context, img domain.Image) error {
	return s.createImage(ctx, s.db, img)
}

func (s *Storage) FindByID(ctx context.Context, id domain.ImageId) (domain.Image, error) {
	return s.image(ctx, s.db, id)
}

func (s *Storage) DeleteByID(ctx context.Context, id domain.ImageId) error {
	return s.deleteImage(ctx, s.db, id)
}

// =========================================================================
// Internal Methods (accept a Querier so they can run inside a transaction)
// =========================================================================

func (s *Storage) createImage(ctx context.Context, q sharedpg.Querier, img domain.Image) error {
	_, err := q.ExecContext(ctx, `INSERT INTO image (id, name) VALUES ($1, $2)`, img.Id, img.Name)
	if err != nil {
		return fmt.Errorf("failed to insert image %s: %w", img.Id, err)
	}
	return nil
}

func (s *Storage) image(ctx context.Context, q sharedpg.Querier, id domain.ImageId) (domain.Image, error) {
	var img domain.Image
	err := q.QueryRowContext(ctx, `SELECT id, name FROM image WHERE id = $1`, id).Scan(&img.Id, &img.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Image{}, internal_errors.ErrRecordNotFound
		}
		return domain.Image{}, fmt.Errorf("failed to query image %s: %w", id, err)
	}
	return img, nil
}

func (s *Storage) deleteImage(ctx context.Context, q sharedpg.Querier, id domain.ImageId) error {
	result, err := q.ExecContext(ctx, `DELETE FROM image WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return internal_errors.ErrRecordNotFound
	}
	return nil
}
