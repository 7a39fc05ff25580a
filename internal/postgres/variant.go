package postgres

import (
	"context"
	"fmt"
	"time"

	"catalog/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// VariantStore persists variants. Reads join the optional featured image so
// a single query returns the full variant.
type VariantStore struct {
	db DBTX
}

const variantSelect = `
	SELECT v.id, v.external_id, v.product_id, v.title,
	       v.option1, v.option2, v.option3, v.sku, v.price, v.available, v.created_at,
	       i.id AS image_id, i.external_id AS image_external_id, i.src, i.created_at AS image_created_at
	FROM variants v
	LEFT JOIN images i ON v.image_id = i.id`

// Upsert inserts the variant when it has no internal ID and updates it in
// place otherwise. The returned variant carries the generated ID on insert.
func (s *VariantStore) Upsert(ctx context.Context, v domain.Variant) (*domain.Variant, error) {
	if v.ID == 0 {
		return s.insert(ctx, v)
	}
	return s.update(ctx, v)
}

func (s *VariantStore) insert(ctx context.Context, v domain.Variant) (*domain.Variant, error) {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO variants (external_id, product_id, image_id, title, option1, option2, option3, sku, price, available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := s.db.QueryRow(ctx, query,
		v.ExternalID, v.ProductID, imageID(v.FeaturedImage), v.Title,
		v.Option1, v.Option2, v.Option3, v.SKU, v.Price, v.Available, v.CreatedAt,
	).Scan(&v.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("variant.insert",
				fmt.Sprintf("External ID %d already exists for a variant", v.ExternalID))
		}
		return nil, domain.Internal(err, "variant.insert", "failed to insert variant")
	}

	return &v, nil
}

func (s *VariantStore) update(ctx context.Context, v domain.Variant) (*domain.Variant, error) {
	query := `
		UPDATE variants
		SET external_id = $1, product_id = $2, image_id = $3, title = $4,
		    option1 = $5, option2 = $6, option3 = $7, sku = $8, price = $9, available = $10
		WHERE id = $11
	`

	tag, err := s.db.Exec(ctx, query,
		v.ExternalID, v.ProductID, imageID(v.FeaturedImage), v.Title,
		v.Option1, v.Option2, v.Option3, v.SKU, v.Price, v.Available, v.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("variant.update",
				fmt.Sprintf("External ID %d already exists for a variant", v.ExternalID))
		}
		return nil, domain.Internal(err, "variant.update", "failed to update variant")
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrVariantNotFound
	}

	return &v, nil
}

// FindByID retrieves a variant with its featured image, if any.
func (s *VariantStore) FindByID(ctx context.Context, id int64) (*domain.Variant, error) {
	return s.findOne(ctx, variantSelect+` WHERE v.id = $1`, id)
}

// FindByIDAndProductID retrieves a variant scoped to its owning product.
func (s *VariantStore) FindByIDAndProductID(ctx context.Context, id, productID int64) (*domain.Variant, error) {
	return s.findOne(ctx, variantSelect+` WHERE v.id = $1 AND v.product_id = $2`, id, productID)
}

// FindByExternalID retrieves a variant by its feed identifier.
func (s *VariantStore) FindByExternalID(ctx context.Context, externalID int64) (*domain.Variant, error) {
	return s.findOne(ctx, variantSelect+` WHERE v.external_id = $1`, externalID)
}

// FindByProductID lists a product's variants in insertion order.
func (s *VariantStore) FindByProductID(ctx context.Context, productID int64) ([]domain.Variant, error) {
	rows, err := s.db.Query(ctx, variantSelect+` WHERE v.product_id = $1 ORDER BY v.id`, productID)
	if err != nil {
		return nil, domain.Internal(err, "variant.find_by_product", "failed to query variants")
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, domain.Internal(err, "variant.find_by_product", "failed to scan variant")
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "variant.find_by_product", "failed to iterate variants")
	}

	return variants, nil
}

// ExternalIDExists reports whether any variant already carries externalID.
func (s *VariantStore) ExternalIDExists(ctx context.Context, externalID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM variants WHERE external_id = $1`, externalID).Scan(&count)
	if err != nil {
		return false, domain.Internal(err, "variant.external_id_exists", "failed to check external ID")
	}
	return count > 0, nil
}

// Delete removes a variant row. The image row, if any, is left in place.
func (s *VariantStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM variants WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "variant.delete", "failed to delete variant")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

func (s *VariantStore) findOne(ctx context.Context, query string, args ...any) (*domain.Variant, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, "variant.find", "failed to query variant")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, domain.Internal(err, "variant.find", "failed to query variant")
		}
		return nil, domain.ErrVariantNotFound
	}

	v, err := scanVariant(rows)
	if err != nil {
		return nil, domain.Internal(err, "variant.find", "failed to scan variant")
	}

	return &v, rows.Err()
}

func scanVariant(row pgx.Row) (domain.Variant, error) {
	var (
		v              domain.Variant
		imageID        pgtype.Int8
		imageExternal  pgtype.Int8
		imageSrc       pgtype.Text
		imageCreatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&v.ID, &v.ExternalID, &v.ProductID, &v.Title,
		&v.Option1, &v.Option2, &v.Option3, &v.SKU, &v.Price, &v.Available, &v.CreatedAt,
		&imageID, &imageExternal, &imageSrc, &imageCreatedAt,
	)
	if err != nil {
		return domain.Variant{}, err
	}

	if imageID.Valid {
		v.FeaturedImage = &domain.Image{
			ID:         imageID.Int64,
			ExternalID: imageExternal,
			Src:        imageSrc.String,
			CreatedAt:  imageCreatedAt.Time,
		}
	}

	return v, nil
}

// imageID extracts a nullable FK value from an optional image.
func imageID(img *domain.Image) any {
	if img == nil || img.ID == 0 {
		return nil
	}
	return img.ID
}
