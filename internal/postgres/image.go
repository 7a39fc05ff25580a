package postgres

import (
	"context"
	"errors"
	"time"

	"catalog/internal/domain"

	"github.com/jackc/pgx/v5"
)

// ImageStore persists image rows. File contents live under the upload root
// and are not this store's concern.
type ImageStore struct {
	db DBTX
}

// Insert persists a new image row and returns it with the generated ID.
// Every call inserts a fresh row; deduplication by external ID is the
// caller's decision (the feed import looks up before inserting, the direct
// save path does not).
func (s *ImageStore) Insert(ctx context.Context, img domain.Image) (domain.Image, error) {
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO images (external_id, src, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := s.db.QueryRow(ctx, query, img.ExternalID, img.Src, img.CreatedAt).Scan(&img.ID)
	if err != nil {
		return domain.Image{}, domain.Internal(err, "image.insert", "failed to insert image")
	}

	return img, nil
}

// FindByID retrieves an image row.
func (s *ImageStore) FindByID(ctx context.Context, id int64) (*domain.Image, error) {
	return s.findOne(ctx, `SELECT id, external_id, src, created_at FROM images WHERE id = $1`, id)
}

// FindByExternalID retrieves an image by its feed identifier.
func (s *ImageStore) FindByExternalID(ctx context.Context, externalID int64) (*domain.Image, error) {
	return s.findOne(ctx, `SELECT id, external_id, src, created_at FROM images WHERE external_id = $1`, externalID)
}

// Delete removes an image row. The stored file is left in place.
func (s *ImageStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "image.delete", "failed to delete image")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

func (s *ImageStore) findOne(ctx context.Context, query string, args ...any) (*domain.Image, error) {
	var img domain.Image
	err := s.db.QueryRow(ctx, query, args...).Scan(&img.ID, &img.ExternalID, &img.Src, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrImageNotFound
		}
		return nil, domain.Internal(err, "image.find", "failed to find image")
	}
	return &img, nil
}
