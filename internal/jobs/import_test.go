package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"catalog/internal/domain"
)

type fakeFetcher struct {
	products []domain.ProductInput
	err      error
	calls    int
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]domain.ProductInput, error) {
	f.calls++
	return f.products, f.err
}

type fakeCatalog struct {
	wiped     bool
	saved     []domain.ProductInput
	saveErrAt int // 1-based save call that fails; 0 means never
	calls     int
}

func (c *fakeCatalog) DeleteAllProducts(ctx context.Context) error {
	c.wiped = true
	c.saved = nil
	return nil
}

func (c *fakeCatalog) SaveProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	c.calls++
	if c.saveErrAt != 0 && c.calls == c.saveErrAt {
		return nil, fmt.Errorf("save failed")
	}
	c.saved = append(c.saved, in)
	return &domain.Product{ID: int64(c.calls), ExternalID: in.ExternalID}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func feedProducts(n int) []domain.ProductInput {
	out := make([]domain.ProductInput, n)
	for i := range out {
		out[i] = domain.ProductInput{
			ExternalID: int64(i + 1),
			Title:      fmt.Sprintf("Product %d", i+1),
			Vendor:     "Feed Vendor",
			Type:       "Feed Type",
		}
	}
	return out
}

func TestImporter_WipesThenKeepsHeadOfFeed(t *testing.T) {
	fetcher := &fakeFetcher{products: feedProducts(60)}
	catalog := &fakeCatalog{}
	imp := NewImporter(fetcher, catalog, 0, 0, discardLogger())

	imp.RunOnce(context.Background())

	if !catalog.wiped {
		t.Fatal("catalog was not wiped before import")
	}
	if len(catalog.saved) != DefaultLimit {
		t.Errorf("saved %d products, want %d", len(catalog.saved), DefaultLimit)
	}
	if catalog.saved[0].ExternalID != 1 || catalog.saved[DefaultLimit-1].ExternalID != DefaultLimit {
		t.Error("importer should keep the head of the feed in order")
	}
}

func TestImporter_SmallFeedImportsEverything(t *testing.T) {
	fetcher := &fakeFetcher{products: feedProducts(3)}
	catalog := &fakeCatalog{}
	imp := NewImporter(fetcher, catalog, 0, 0, discardLogger())

	imp.RunOnce(context.Background())

	if len(catalog.saved) != 3 {
		t.Errorf("saved %d products, want 3", len(catalog.saved))
	}
}

func TestImporter_FetchFailureLeavesCatalogUntouched(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("feed unreachable")}
	catalog := &fakeCatalog{}
	imp := NewImporter(fetcher, catalog, 0, 0, discardLogger())

	imp.RunOnce(context.Background())

	if catalog.wiped {
		t.Error("catalog must not be wiped when the fetch fails")
	}
}

func TestImporter_SaveFailureStopsRunWithoutPanic(t *testing.T) {
	fetcher := &fakeFetcher{products: feedProducts(5)}
	catalog := &fakeCatalog{saveErrAt: 3}
	imp := NewImporter(fetcher, catalog, 0, 0, discardLogger())

	// Must not panic or return; failures are logged and swallowed.
	imp.RunOnce(context.Background())

	if len(catalog.saved) != 2 {
		t.Errorf("expected the 2 saves before the failure, got %d", len(catalog.saved))
	}
}

func TestImporter_RunOnceRecoversPanic(t *testing.T) {
	fetcher := &panickyFetcher{}
	catalog := &fakeCatalog{}
	imp := NewImporter(fetcher, catalog, 0, 0, discardLogger())

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("panic escaped RunOnce: %v", r)
		}
	}()
	imp.RunOnce(context.Background())
}

type panickyFetcher struct{}

func (panickyFetcher) Fetch(ctx context.Context) ([]domain.ProductInput, error) {
	panic("bad feed payload")
}

func TestNewImporter_Defaults(t *testing.T) {
	imp := NewImporter(&fakeFetcher{}, &fakeCatalog{}, 0, -1, discardLogger())

	if imp.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", imp.interval, DefaultInterval)
	}
	if imp.limit != DefaultLimit {
		t.Errorf("limit = %d, want %d", imp.limit, DefaultLimit)
	}
}
