package postgres

import (
	"catalog/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

// productJoinRow is one row of the products → variants → images LEFT JOIN.
// A product with no variants yields a single row whose variant and image
// columns are all null; a product with N variants yields N rows.
type productJoinRow struct {
	ProductID         int64
	ProductExternalID int64
	ProductTitle      string
	ProductVendor     string
	ProductType       string
	ProductCreatedAt  pgtype.Timestamptz

	VariantID         pgtype.Int8
	VariantExternalID pgtype.Int8
	VariantTitle      pgtype.Text
	VariantOption1    pgtype.Text
	VariantOption2    pgtype.Text
	VariantOption3    pgtype.Text
	VariantSKU        pgtype.Text
	VariantPrice      pgtype.Float8
	VariantAvailable  pgtype.Bool
	VariantCreatedAt  pgtype.Timestamptz

	ImageID         pgtype.Int8
	ImageExternalID pgtype.Int8
	ImageSrc        pgtype.Text
	ImageCreatedAt  pgtype.Timestamptz
}

// collateProductRows reassembles a flat joined result set into nested
// products. Products keep the order of their first row and are merged by
// internal ID; each non-null variant row is appended to its product in row
// order. A null variant ID contributes nothing (the product keeps an empty
// variant list), and a null image ID leaves the variant's FeaturedImage nil.
// Variants are NOT deduplicated: a join fan-out that repeats a variant row
// repeats the variant.
func collateProductRows(rows []productJoinRow) []domain.Product {
	products := make([]domain.Product, 0)
	index := make(map[int64]int)

	for _, row := range rows {
		i, seen := index[row.ProductID]
		if !seen {
			products = append(products, domain.Product{
				ID:         row.ProductID,
				ExternalID: row.ProductExternalID,
				Title:      row.ProductTitle,
				Vendor:     row.ProductVendor,
				Type:       row.ProductType,
				CreatedAt:  row.ProductCreatedAt.Time,
				Variants:   []domain.Variant{},
			})
			i = len(products) - 1
			index[row.ProductID] = i
		}

		if !row.VariantID.Valid {
			continue
		}

		variant := domain.Variant{
			ID:         row.VariantID.Int64,
			ExternalID: row.VariantExternalID.Int64,
			ProductID:  row.ProductID,
			Title:      row.VariantTitle.String,
			Option1:    row.VariantOption1,
			Option2:    row.VariantOption2,
			Option3:    row.VariantOption3,
			SKU:        row.VariantSKU.String,
			Price:      row.VariantPrice.Float64,
			Available:  row.VariantAvailable.Bool,
			CreatedAt:  row.VariantCreatedAt.Time,
		}

		if row.ImageID.Valid {
			variant.FeaturedImage = &domain.Image{
				ID:         row.ImageID.Int64,
				ExternalID: row.ImageExternalID,
				Src:        row.ImageSrc.String,
				CreatedAt:  row.ImageCreatedAt.Time,
			}
		}

		products[i].Variants = append(products[i].Variants, variant)
	}

	return products
}
