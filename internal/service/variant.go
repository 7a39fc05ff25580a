package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"catalog/internal/domain"
)

// VariantService saves variant rows with their images. Batch saves enforce
// in-batch uniqueness before anything is written; single saves enforce
// uniqueness against persisted data.
type VariantService struct {
	stores    Stores
	images    *ImageService
	validator *Validator
	logger    *slog.Logger
}

func NewVariantService(stores Stores, images *ImageService, validator *Validator, logger *slog.Logger) *VariantService {
	return &VariantService{
		stores:    stores,
		images:    images,
		validator: validator,
		logger:    logger,
	}
}

// SaveVariants saves a batch of variants for one product using the given
// store set (typically transaction-scoped). External ID, title and SKU must
// each be unique within the batch; a duplicate fails the whole batch before
// any row is written.
func (s *VariantService) SaveVariants(ctx context.Context, st Stores, productID int64, inputs []domain.VariantInput) ([]domain.Variant, error) {
	if err := checkBatchUniqueness(inputs); err != nil {
		return nil, err
	}

	saved := make([]domain.Variant, 0, len(inputs))
	for _, in := range inputs {
		in.ProductID = productID
		v, err := s.saveOne(ctx, st, in)
		if err != nil {
			return nil, err
		}
		saved = append(saved, *v)
	}
	return saved, nil
}

// SaveVariant validates and saves a single variant against the pool-backed
// stores. New variants must carry an external ID not already persisted.
func (s *VariantService) SaveVariant(ctx context.Context, in domain.VariantInput) (*domain.Variant, error) {
	const op = "VariantService.SaveVariant"

	if err := s.validator.ValidateVariant(op, in); err != nil {
		return nil, err
	}
	return s.saveOne(ctx, s.stores, in)
}

// UpdateVariant applies a submitted row to an existing variant of the given
// product. The variant must belong to the product.
func (s *VariantService) UpdateVariant(ctx context.Context, productID int64, in domain.VariantInput) (*domain.Variant, error) {
	const op = "VariantService.UpdateVariant"

	if err := s.validator.ValidateVariant(op, in); err != nil {
		return nil, err
	}

	existing, err := s.stores.Variants.FindByIDAndProductID(ctx, in.ID, productID)
	if err != nil {
		return nil, err
	}

	in.ProductID = existing.ProductID
	return s.saveOne(ctx, s.stores, in)
}

// FindVariantByID returns one variant with its featured image.
func (s *VariantService) FindVariantByID(ctx context.Context, id int64) (*domain.Variant, error) {
	return s.stores.Variants.FindByID(ctx, id)
}

// FindVariantByIDAndProductID returns a variant scoped to its owning
// product. Used by the variant edit form so one product's variants cannot be
// reached through another product's URL.
func (s *VariantService) FindVariantByIDAndProductID(ctx context.Context, id, productID int64) (*domain.Variant, error) {
	return s.stores.Variants.FindByIDAndProductID(ctx, id, productID)
}

// saveOne resolves the variant's image, runs the persisted external ID check
// for inserts, and upserts the row.
func (s *VariantService) saveOne(ctx context.Context, st Stores, in domain.VariantInput) (*domain.Variant, error) {
	const op = "VariantService.saveOne"

	if in.ID == 0 {
		exists, err := st.Variants.ExternalIDExists(ctx, in.ExternalID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.Conflict(op, fmt.Sprintf("External ID %d already exists for a variant", in.ExternalID))
		}
	}

	img, err := s.images.Resolve(ctx, st, in)
	if err != nil {
		return nil, err
	}

	variant := domain.Variant{
		ID:            in.ID,
		ExternalID:    in.ExternalID,
		ProductID:     in.ProductID,
		Title:         in.Title,
		Option1:       optionText(in.Option1),
		Option2:       optionText(in.Option2),
		Option3:       optionText(in.Option3),
		SKU:           in.SKU,
		Price:         in.Price,
		Available:     in.Available,
		FeaturedImage: img,
	}

	saved, err := st.Variants.Upsert(ctx, variant)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("saved variant",
		"variant_id", saved.ID,
		"external_id", saved.ExternalID,
		"product_id", saved.ProductID,
	)
	return saved, nil
}

// checkBatchUniqueness rejects a batch in which any external ID, title or
// SKU appears more than once.
func checkBatchUniqueness(inputs []domain.VariantInput) error {
	externalIDs := make(map[int64]int, len(inputs))
	titles := make(map[string]int, len(inputs))
	skus := make(map[string]int, len(inputs))

	for _, in := range inputs {
		externalIDs[in.ExternalID]++
		titles[in.Title]++
		skus[in.SKU]++
	}

	for _, n := range externalIDs {
		if n > 1 {
			return ErrDuplicateVariantExternalID
		}
	}
	for _, n := range titles {
		if n > 1 {
			return ErrDuplicateVariantTitle
		}
	}
	for _, n := range skus {
		if n > 1 {
			return ErrDuplicateVariantSKU
		}
	}
	return nil
}

// optionText maps an empty option string to SQL NULL.
func optionText(s string) pgtype.Text {
	if strings.TrimSpace(s) == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
