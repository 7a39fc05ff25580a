package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"catalog/internal/domain"
)

const (
	// DefaultInterval is how often the feed is re-imported.
	DefaultInterval = time.Hour
	// DefaultLimit caps how many feed products each import keeps.
	DefaultLimit = 50
)

// Fetcher downloads the product feed.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.ProductInput, error)
}

// Catalog is the slice of the product service the importer needs.
type Catalog interface {
	DeleteAllProducts(ctx context.Context) error
	SaveProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
}

// Importer periodically replaces the catalog with the head of the product
// feed. A failed run logs and waits for the next tick; it never takes the
// process down.
type Importer struct {
	fetcher  Fetcher
	catalog  Catalog
	interval time.Duration
	limit    int
	logger   *slog.Logger
}

func NewImporter(fetcher Fetcher, catalog Catalog, interval time.Duration, limit int, logger *slog.Logger) *Importer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Importer{
		fetcher:  fetcher,
		catalog:  catalog,
		interval: interval,
		limit:    limit,
		logger:   logger,
	}
}

// Run imports once immediately, then on every tick until ctx is cancelled.
func (i *Importer) Run(ctx context.Context) {
	i.RunOnce(ctx)

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single import. Errors and panics are logged, never
// returned; an aborted run leaves whatever state the wipe-and-reload reached.
func (i *Importer) RunOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("feed import panicked", "panic", r)
		}
	}()

	start := time.Now()
	count, err := i.importProducts(ctx)
	if err != nil {
		i.logger.Error("feed import failed", "error", err)
		return
	}
	i.logger.Info("feed import complete",
		"products", count,
		"duration", time.Since(start),
	)
}

func (i *Importer) importProducts(ctx context.Context) (int, error) {
	products, err := i.fetcher.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	if err := i.catalog.DeleteAllProducts(ctx); err != nil {
		return 0, fmt.Errorf("clear products: %w", err)
	}

	if len(products) > i.limit {
		products = products[:i.limit]
	}

	for n, p := range products {
		if _, err := i.catalog.SaveProduct(ctx, p); err != nil {
			return n, fmt.Errorf("import product %d: %w", p.ExternalID, err)
		}
	}
	return len(products), nil
}
