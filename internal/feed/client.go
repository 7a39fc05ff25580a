package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"catalog/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client fetches a Shopify-style products.json feed and converts it into
// submission inputs.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Feed payload shapes. Prices arrive as JSON strings ("12.00"), so they
// decode through json.Number.
type payload struct {
	Products []productJSON `json:"products"`
}

type productJSON struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Vendor      string        `json:"vendor"`
	ProductType string        `json:"product_type"`
	Variants    []variantJSON `json:"variants"`
}

type variantJSON struct {
	ID            int64       `json:"id"`
	Title         string      `json:"title"`
	Option1       *string     `json:"option1"`
	Option2       *string     `json:"option2"`
	Option3       *string     `json:"option3"`
	SKU           string      `json:"sku"`
	Price         json.Number `json:"price"`
	Available     bool        `json:"available"`
	FeaturedImage *imageJSON  `json:"featured_image"`
}

type imageJSON struct {
	ID        int64     `json:"id"`
	Src       string    `json:"src"`
	CreatedAt time.Time `json:"created_at"`
}

// Fetch downloads the feed and returns its products as submission inputs.
func (c *Client) Fetch(ctx context.Context) ([]domain.ProductInput, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d from %s", resp.StatusCode, c.url)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var body payload
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	products := make([]domain.ProductInput, 0, len(body.Products))
	for _, p := range body.Products {
		in, err := p.toInput()
		if err != nil {
			return nil, err
		}
		products = append(products, in)
	}
	return products, nil
}

func (p productJSON) toInput() (domain.ProductInput, error) {
	in := domain.ProductInput{
		ExternalID: p.ID,
		Title:      p.Title,
		Vendor:     p.Vendor,
		Type:       p.ProductType,
		Variants:   make([]domain.VariantInput, 0, len(p.Variants)),
	}

	for _, v := range p.Variants {
		price, err := v.Price.Float64()
		if err != nil {
			return domain.ProductInput{}, fmt.Errorf("parse price %q for variant %d: %w", v.Price, v.ID, err)
		}

		vi := domain.VariantInput{
			ExternalID: v.ID,
			Title:      v.Title,
			Option1:    deref(v.Option1),
			Option2:    deref(v.Option2),
			Option3:    deref(v.Option3),
			SKU:        v.SKU,
			Price:      price,
			Available:  v.Available,
		}
		if v.FeaturedImage != nil {
			vi.FeaturedImage = &domain.ImageRef{
				ExternalID: pgtype.Int8{Int64: v.FeaturedImage.ID, Valid: true},
				Src:        v.FeaturedImage.Src,
				CreatedAt:  v.FeaturedImage.CreatedAt,
			}
		}
		in.Variants = append(in.Variants, vi)
	}
	return in, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
