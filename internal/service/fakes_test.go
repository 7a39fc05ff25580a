package service

import (
	"context"
	"slices"
	"time"

	"catalog/internal/domain"
)

// fakeDB is shared in-memory state behind the store fakes. Products are kept
// newest first to mirror the store's ordering.
type fakeDB struct {
	products []domain.Product
	variants []domain.Variant
	images   []domain.Image
	nextID   int64
}

func (db *fakeDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *fakeDB) clone() *fakeDB {
	return &fakeDB{
		products: slices.Clone(db.products),
		variants: slices.Clone(db.variants),
		images:   slices.Clone(db.images),
		nextID:   db.nextID,
	}
}

func newFakeStores() (*fakeDB, Stores) {
	db := &fakeDB{}
	return db, storesFor(db)
}

func storesFor(db *fakeDB) Stores {
	return Stores{
		Products: &fakeProducts{db: db},
		Variants: &fakeVariants{db: db},
		Images:   &fakeImages{db: db},
	}
}

// fakeTx snapshots the database before fn and restores it when fn fails,
// mirroring transactional rollback.
type fakeTx struct {
	db *fakeDB
}

func (t *fakeTx) InTx(ctx context.Context, fn func(tx Stores) error) error {
	snapshot := t.db.clone()
	if err := fn(storesFor(t.db)); err != nil {
		*t.db = *snapshot
		return err
	}
	return nil
}

type fakeProducts struct {
	db *fakeDB
}

func (s *fakeProducts) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.ID = s.db.id()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Variants = nil
	s.db.products = append([]domain.Product{p}, s.db.products...)
	return p, nil
}

func (s *fakeProducts) Update(ctx context.Context, p domain.Product) error {
	for i := range s.db.products {
		if s.db.products[i].ID == p.ID {
			p.Variants = nil
			p.CreatedAt = s.db.products[i].CreatedAt
			s.db.products[i] = p
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (s *fakeProducts) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	for _, p := range s.db.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (s *fakeProducts) FindWithDetailsByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Variants = s.variantsOf(p.ID)
	return p, nil
}

func (s *fakeProducts) ExternalIDExists(ctx context.Context, externalID int64) (bool, error) {
	for _, p := range s.db.products {
		if p.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeProducts) Count(ctx context.Context) (int64, error) {
	return int64(len(s.db.products)), nil
}

func (s *fakeProducts) Delete(ctx context.Context, id int64) error {
	for i, p := range s.db.products {
		if p.ID == id {
			s.db.products = slices.Delete(s.db.products, i, i+1)
			s.db.variants = slices.DeleteFunc(s.db.variants, func(v domain.Variant) bool {
				return v.ProductID == id
			})
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (s *fakeProducts) DeleteAll(ctx context.Context) error {
	s.db.products = nil
	s.db.variants = nil
	return nil
}

func (s *fakeProducts) PageWithDetails(ctx context.Context, limit, offset *int) ([]domain.Product, error) {
	all := slices.Clone(s.db.products)
	if offset != nil {
		if *offset >= len(all) {
			all = nil
		} else {
			all = all[*offset:]
		}
	}
	if limit != nil && *limit < len(all) {
		all = all[:*limit]
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		p.Variants = s.variantsOf(p.ID)
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeProducts) variantsOf(productID int64) []domain.Variant {
	out := []domain.Variant{}
	for _, v := range s.db.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	return out
}

type fakeVariants struct {
	db *fakeDB
}

func (s *fakeVariants) Upsert(ctx context.Context, v domain.Variant) (*domain.Variant, error) {
	if v.ID == 0 {
		v.ID = s.db.id()
		if v.CreatedAt.IsZero() {
			v.CreatedAt = time.Now().UTC()
		}
		s.db.variants = append(s.db.variants, v)
		saved := v
		return &saved, nil
	}
	for i := range s.db.variants {
		if s.db.variants[i].ID == v.ID {
			v.CreatedAt = s.db.variants[i].CreatedAt
			s.db.variants[i] = v
			saved := v
			return &saved, nil
		}
	}
	return nil, domain.ErrVariantNotFound
}

func (s *fakeVariants) FindByID(ctx context.Context, id int64) (*domain.Variant, error) {
	for _, v := range s.db.variants {
		if v.ID == id {
			found := v
			return &found, nil
		}
	}
	return nil, domain.ErrVariantNotFound
}

func (s *fakeVariants) FindByIDAndProductID(ctx context.Context, id, productID int64) (*domain.Variant, error) {
	v, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.ProductID != productID {
		return nil, domain.ErrVariantNotFound
	}
	return v, nil
}

func (s *fakeVariants) FindByExternalID(ctx context.Context, externalID int64) (*domain.Variant, error) {
	for _, v := range s.db.variants {
		if v.ExternalID == externalID {
			found := v
			return &found, nil
		}
	}
	return nil, domain.ErrVariantNotFound
}

func (s *fakeVariants) FindByProductID(ctx context.Context, productID int64) ([]domain.Variant, error) {
	out := []domain.Variant{}
	for _, v := range s.db.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeVariants) ExternalIDExists(ctx context.Context, externalID int64) (bool, error) {
	for _, v := range s.db.variants {
		if v.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeVariants) Delete(ctx context.Context, id int64) error {
	for i, v := range s.db.variants {
		if v.ID == id {
			s.db.variants = slices.Delete(s.db.variants, i, i+1)
			return nil
		}
	}
	return domain.ErrVariantNotFound
}

type fakeImages struct {
	db *fakeDB
}

func (s *fakeImages) Insert(ctx context.Context, img domain.Image) (domain.Image, error) {
	img.ID = s.db.id()
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}
	s.db.images = append(s.db.images, img)
	return img, nil
}

func (s *fakeImages) FindByID(ctx context.Context, id int64) (*domain.Image, error) {
	for _, img := range s.db.images {
		if img.ID == id {
			found := img
			return &found, nil
		}
	}
	return nil, domain.ErrImageNotFound
}

func (s *fakeImages) FindByExternalID(ctx context.Context, externalID int64) (*domain.Image, error) {
	for _, img := range s.db.images {
		if img.ExternalID.Valid && img.ExternalID.Int64 == externalID {
			found := img
			return &found, nil
		}
	}
	return nil, domain.ErrImageNotFound
}
