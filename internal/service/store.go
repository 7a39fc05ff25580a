package service

import (
	"context"

	"catalog/internal/domain"
)

// Store contracts consumed by the services. The postgres package provides
// the production implementations; tests substitute in-memory fakes.

// ProductStore persists product rows.
type ProductStore interface {
	Insert(ctx context.Context, p domain.Product) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindWithDetailsByID(ctx context.Context, id int64) (*domain.Product, error)
	ExternalIDExists(ctx context.Context, externalID int64) (bool, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	PageWithDetails(ctx context.Context, limit, offset *int) ([]domain.Product, error)
}

// VariantStore persists variant rows.
type VariantStore interface {
	Upsert(ctx context.Context, v domain.Variant) (*domain.Variant, error)
	FindByID(ctx context.Context, id int64) (*domain.Variant, error)
	FindByIDAndProductID(ctx context.Context, id, productID int64) (*domain.Variant, error)
	FindByExternalID(ctx context.Context, externalID int64) (*domain.Variant, error)
	FindByProductID(ctx context.Context, productID int64) ([]domain.Variant, error)
	ExternalIDExists(ctx context.Context, externalID int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// ImageStore persists image rows.
type ImageStore interface {
	Insert(ctx context.Context, img domain.Image) (domain.Image, error)
	FindByID(ctx context.Context, id int64) (*domain.Image, error)
	FindByExternalID(ctx context.Context, externalID int64) (*domain.Image, error)
}

// Stores bundles the three stores so a transaction can hand out a
// consistently-scoped set.
type Stores struct {
	Products ProductStore
	Variants VariantStore
	Images   ImageStore
}

// Transactor runs a function with all stores bound to one transaction.
// fn returning an error rolls the transaction back.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx Stores) error) error
}
