package domain

import (
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// =============================================================================
// CATALOG DOMAIN TYPES
// =============================================================================

// Product is a catalog entry. ExternalID is the feed/caller-supplied
// identifier and must be unique across all products; ID is assigned on
// persist.
type Product struct {
	ID         int64
	ExternalID int64
	Title      string
	Vendor     string
	Type       string
	CreatedAt  time.Time
	Variants   []Variant
}

// DisplayImage returns the featured image of the first variant that has one.
// Used by listings that show a single thumbnail per product.
func (p Product) DisplayImage() *Image {
	for _, v := range p.Variants {
		if v.FeaturedImage != nil {
			return v.FeaturedImage
		}
	}
	return nil
}

// Variant is a purchasable variation of a product. ExternalID is unique
// across all variants. FeaturedImage is optional (at most one per variant).
type Variant struct {
	ID            int64
	ExternalID    int64
	ProductID     int64
	Title         string
	Option1       pgtype.Text
	Option2       pgtype.Text
	Option3       pgtype.Text
	SKU           string
	Price         float64
	Available     bool
	FeaturedImage *Image
	CreatedAt     time.Time
}

// Image is a stored variant image. Src is a path relative to the upload
// root, never an absolute filesystem path. ExternalID is set only for
// feed-imported images.
type Image struct {
	ID         int64
	ExternalID pgtype.Int8
	Src        string
	CreatedAt  time.Time
}

// =============================================================================
// SUBMISSION TYPES (inbound payloads, validated before persistence)
// =============================================================================

// ProductInput is a submitted product with its variant rows. Field tags
// drive validator/v10; messages for humans are produced by the service
// layer's translation.
type ProductInput struct {
	ID         int64          `form:"uid"`
	ExternalID int64          `form:"external_id" validate:"required,gte=1"`
	Title      string         `form:"title" validate:"required,min=3,max=50"`
	Vendor     string         `form:"vendor" validate:"required,min=3,max=50"`
	Type       string         `form:"product_type" validate:"required,min=3,max=50"`
	Variants   []VariantInput `validate:"dive"`
}

// VariantInput is one submitted variant row. ImageFile is a transient
// upload payload present only during a save request; it is never persisted
// as a field. A VariantInput with a blank title is a UI placeholder row and
// is dropped before validation.
type VariantInput struct {
	ID            int64     `form:"uid"`
	ExternalID    int64     `form:"external_id" validate:"required,gte=1"`
	ProductID     int64     `form:"product_id"`
	Title         string    `form:"title" validate:"required,min=3,max=50"`
	Option1       string    `form:"option1" validate:"max=50"`
	Option2       string    `form:"option2" validate:"max=50"`
	Option3       string    `form:"option3" validate:"max=50"`
	SKU           string    `form:"sku" validate:"required,min=3,max=50"`
	Price         float64   `form:"price" validate:"required,gte=0.01,lte=9999.99"`
	Available     bool      `form:"available"`
	FeaturedImage *ImageRef `validate:"-"`
	ImageFile     *FileUpload
}

// Blank reports whether the row is an empty placeholder from the form.
func (v VariantInput) Blank() bool {
	return strings.TrimSpace(v.Title) == ""
}

// ImageRef is a by-value reference to image data supplied with a variant,
// either from an edit form (existing row) or from the feed.
type ImageRef struct {
	ID         int64
	ExternalID pgtype.Int8
	Src        string
	CreatedAt  time.Time
}

// FileUpload carries an uploaded file's original name and content stream.
type FileUpload struct {
	Filename string
	Content  io.Reader
}

// =============================================================================
// PAGING
// =============================================================================

// ProductPage is one page of products with nested variants and images.
// Pages are zero-based. PageSize nil means everything came back as a single
// unbounded page.
type ProductPage struct {
	Products    []Product
	CurrentPage int
	TotalPages  int64
	PageSize    *int
}

// =============================================================================
// DOMAIN ERRORS
// =============================================================================

var (
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrVariantNotFound = &Error{Code: ENOTFOUND, Message: "Variant not found"}
	ErrImageNotFound   = &Error{Code: ENOTFOUND, Message: "Image not found"}
)
