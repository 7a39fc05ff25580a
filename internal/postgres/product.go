package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/internal/domain"

	"github.com/jackc/pgx/v5"
)

// ProductStore persists products.
type ProductStore struct {
	db DBTX
}

const productColumns = `id, external_id, title, vendor, product_type, created_at`

// joined column list shared by the details queries. Column aliases follow
// the p_/v_/i_ prefix convention so scans stay unambiguous.
const productDetailColumns = `
	p.id AS p_id, p.external_id AS p_external_id, p.title AS p_title,
	p.vendor AS p_vendor, p.product_type AS p_product_type, p.created_at AS p_created_at,
	v.id AS v_id, v.external_id AS v_external_id, v.title AS v_title,
	v.option1 AS v_option1, v.option2 AS v_option2, v.option3 AS v_option3,
	v.sku AS v_sku, v.price AS v_price, v.available AS v_available, v.created_at AS v_created_at,
	i.id AS i_id, i.external_id AS i_external_id, i.src AS i_src, i.created_at AS i_created_at`

// Insert persists a new product and returns it with the generated ID.
// CreatedAt is preserved when the caller supplies one (feed imports carry
// their own timestamps) and server-assigned otherwise.
func (s *ProductStore) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO products (external_id, title, vendor, product_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := s.db.QueryRow(ctx, query, p.ExternalID, p.Title, p.Vendor, p.Type, p.CreatedAt).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, domain.Conflict("product.insert",
				fmt.Sprintf("External ID %d already exists for a product", p.ExternalID))
		}
		return domain.Product{}, domain.Internal(err, "product.insert", "failed to insert product")
	}

	return p, nil
}

// Update replaces the mutable descriptive fields of a product. The row is
// matched by both internal and external ID, mirroring the save form which
// always carries both.
func (s *ProductStore) Update(ctx context.Context, p domain.Product) error {
	query := `
		UPDATE products
		SET title = $1, vendor = $2, product_type = $3, external_id = $4
		WHERE id = $5
	`

	tag, err := s.db.Exec(ctx, query, p.Title, p.Vendor, p.Type, p.ExternalID, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("product.update",
				fmt.Sprintf("External ID %d already exists for a product", p.ExternalID))
		}
		return domain.Internal(err, "product.update", "failed to update product")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product row without its variants.
func (s *ProductStore) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ExternalID, &p.Title, &p.Vendor, &p.Type, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "product.find", "failed to find product")
	}

	return &p, nil
}

// FindByExternalID retrieves a product by its feed identifier.
func (s *ProductStore) FindByExternalID(ctx context.Context, externalID int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE external_id = $1`

	var p domain.Product
	err := s.db.QueryRow(ctx, query, externalID).Scan(
		&p.ID, &p.ExternalID, &p.Title, &p.Vendor, &p.Type, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "product.find_by_external_id", "failed to find product")
	}

	return &p, nil
}

// ExternalIDExists reports whether any product already carries externalID.
// This check is advisory; the unique index enforces the invariant.
func (s *ProductStore) ExternalIDExists(ctx context.Context, externalID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE external_id = $1`, externalID).Scan(&count)
	if err != nil {
		return false, domain.Internal(err, "product.external_id_exists", "failed to check external ID")
	}
	return count > 0, nil
}

// Count returns the total number of products.
func (s *ProductStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, domain.Internal(err, "product.count", "failed to count products")
	}
	return count, nil
}

// Delete removes a product row. Variants cascade at the schema level;
// callers must not assume image rows or files are removed.
func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "product.delete", "failed to delete product")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// DeleteAll wipes every product (and, via cascade, every variant). Used by
// the feed import before repopulating.
func (s *ProductStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM products`); err != nil {
		return domain.Internal(err, "product.delete_all", "failed to delete products")
	}
	return nil
}

// PageWithDetails returns one page of products with nested variants and
// images, newest first. limit/offset nil means no bound. Pagination happens
// in a CTE so the join fan-out cannot shrink the page.
func (s *ProductStore) PageWithDetails(ctx context.Context, limit, offset *int) ([]domain.Product, error) {
	query := `
		WITH paginated_products AS (
			SELECT * FROM products
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		)
		SELECT ` + productDetailColumns + `
		FROM paginated_products p
		LEFT JOIN variants v ON p.id = v.product_id
		LEFT JOIN images i ON v.image_id = i.id
		ORDER BY p.created_at DESC, p.id, v.id
	`

	// LIMIT NULL / OFFSET NULL are the SQL spellings of "unbounded".
	var limitArg, offsetArg any
	if limit != nil {
		limitArg = *limit
	}
	if offset != nil {
		offsetArg = *offset
	}

	rows, err := s.db.Query(ctx, query, limitArg, offsetArg)
	if err != nil {
		return nil, domain.Internal(err, "product.page_details", "failed to query products with details")
	}
	defer rows.Close()

	joined, err := scanProductJoinRows(rows)
	if err != nil {
		return nil, domain.Internal(err, "product.page_details", "failed to scan product rows")
	}

	return collateProductRows(joined), nil
}

// FindWithDetailsByID returns one product with nested variants and images.
func (s *ProductStore) FindWithDetailsByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT ` + productDetailColumns + `
		FROM products p
		LEFT JOIN variants v ON p.id = v.product_id
		LEFT JOIN images i ON v.image_id = i.id
		WHERE p.id = $1
		ORDER BY v.id
	`

	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return nil, domain.Internal(err, "product.find_details", "failed to query product with details")
	}
	defer rows.Close()

	joined, err := scanProductJoinRows(rows)
	if err != nil {
		return nil, domain.Internal(err, "product.find_details", "failed to scan product rows")
	}

	products := collateProductRows(joined)
	if len(products) == 0 {
		return nil, domain.ErrProductNotFound
	}

	return &products[0], nil
}

func scanProductJoinRows(rows pgx.Rows) ([]productJoinRow, error) {
	var joined []productJoinRow
	for rows.Next() {
		var r productJoinRow
		err := rows.Scan(
			&r.ProductID, &r.ProductExternalID, &r.ProductTitle,
			&r.ProductVendor, &r.ProductType, &r.ProductCreatedAt,
			&r.VariantID, &r.VariantExternalID, &r.VariantTitle,
			&r.VariantOption1, &r.VariantOption2, &r.VariantOption3,
			&r.VariantSKU, &r.VariantPrice, &r.VariantAvailable, &r.VariantCreatedAt,
			&r.ImageID, &r.ImageExternalID, &r.ImageSrc, &r.ImageCreatedAt,
		)
		if err != nil {
			return nil, err
		}
		joined = append(joined, r)
	}
	return joined, rows.Err()
}
