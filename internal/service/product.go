package service

import (
	"context"
	"fmt"
	"log/slog"

	"catalog/internal/domain"
)

// ProductService orchestrates product saves, updates and paged listings.
// A save writes the product and all its variants in one transaction; any
// failure rolls the whole save back.
type ProductService struct {
	stores    Stores
	tx        Transactor
	variants  *VariantService
	validator *Validator
	logger    *slog.Logger
}

func NewProductService(stores Stores, tx Transactor, variants *VariantService, validator *Validator, logger *slog.Logger) *ProductService {
	return &ProductService{
		stores:    stores,
		tx:        tx,
		variants:  variants,
		validator: validator,
		logger:    logger,
	}
}

// SaveProduct validates and persists a new product with its variant rows.
// Placeholder rows with a blank title are dropped before validation. The
// product insert and every variant save run inside one transaction, so a
// conflict or failure on any variant leaves nothing behind.
func (s *ProductService) SaveProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	const op = "ProductService.SaveProduct"

	in.Variants = FilterBlankVariants(in.Variants)
	if err := s.validator.ValidateProduct(op, in); err != nil {
		return nil, err
	}

	var saved domain.Product
	err := s.tx.InTx(ctx, func(tx Stores) error {
		exists, err := tx.Products.ExternalIDExists(ctx, in.ExternalID)
		if err != nil {
			return err
		}
		if exists {
			return domain.Conflict(op, fmt.Sprintf("External ID %d already exists for a product", in.ExternalID))
		}

		product, err := tx.Products.Insert(ctx, domain.Product{
			ExternalID: in.ExternalID,
			Title:      in.Title,
			Vendor:     in.Vendor,
			Type:       in.Type,
		})
		if err != nil {
			return err
		}

		variants, err := s.variants.SaveVariants(ctx, tx, product.ID, in.Variants)
		if err != nil {
			return err
		}

		product.Variants = variants
		saved = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("saved product",
		"product_id", saved.ID,
		"external_id", saved.ExternalID,
		"variants", len(saved.Variants),
	)
	return &saved, nil
}

// UpdateProduct applies submitted product fields to an existing product.
// Variant rows on the input are validated but not written here; they are
// managed through the variant operations.
func (s *ProductService) UpdateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	const op = "ProductService.UpdateProduct"

	in.Variants = FilterBlankVariants(in.Variants)
	if err := s.validator.ValidateProduct(op, in); err != nil {
		return nil, err
	}

	existing, err := s.stores.Products.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	existing.ExternalID = in.ExternalID
	existing.Title = in.Title
	existing.Vendor = in.Vendor
	existing.Type = in.Type

	if err := s.stores.Products.Update(ctx, *existing); err != nil {
		return nil, err
	}

	return s.stores.Products.FindWithDetailsByID(ctx, existing.ID)
}

// GetProductByID returns a product row without variants.
func (s *ProductService) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.stores.Products.FindByID(ctx, id)
}

// GetProductWithDetailsByID returns a product with its variants and images.
func (s *ProductService) GetProductWithDetailsByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.stores.Products.FindWithDetailsByID(ctx, id)
}

// GetAllProductsWithDetails returns one zero-based page of products with
// variants and images, newest products first. A nil or non-positive pageSize
// returns everything as a single page. A page beyond the last is an empty
// page, not an error.
func (s *ProductService) GetAllProductsWithDetails(ctx context.Context, page int, pageSize *int) (*domain.ProductPage, error) {
	if pageSize == nil || *pageSize <= 0 {
		products, err := s.stores.Products.PageWithDetails(ctx, nil, nil)
		if err != nil {
			return nil, err
		}
		return &domain.ProductPage{Products: products, CurrentPage: 0, TotalPages: 1}, nil
	}

	if page < 0 {
		page = 0
	}

	count, err := s.stores.Products.Count(ctx)
	if err != nil {
		return nil, err
	}

	size := *pageSize
	totalPages := (count + int64(size) - 1) / int64(size)

	limit := size
	offset := page * size
	products, err := s.stores.Products.PageWithDetails(ctx, &limit, &offset)
	if err != nil {
		return nil, err
	}

	return &domain.ProductPage{
		Products:    products,
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    pageSize,
	}, nil
}

// DeleteProduct removes a product; its variants go with it via the cascading
// foreign key.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	return s.stores.Products.Delete(ctx, id)
}

// DeleteAllProducts wipes the catalog. Used by the feed import before
// reloading.
func (s *ProductService) DeleteAllProducts(ctx context.Context) error {
	return s.stores.Products.DeleteAll(ctx)
}
