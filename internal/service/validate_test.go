package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/internal/domain"
)

func TestValidateProduct_FieldBounds(t *testing.T) {
	v := NewValidator()

	valid := func() domain.ProductInput {
		return domain.ProductInput{
			ExternalID: 1,
			Title:      "Espresso Blend",
			Vendor:     "Acme Coffee",
			Type:       "Coffee",
			Variants: []domain.VariantInput{
				{ExternalID: 2, Title: "250g bag", SKU: "ESP-250", Price: 12.50},
			},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*domain.ProductInput)
		wantField string
	}{
		{
			name:   "valid input",
			mutate: func(*domain.ProductInput) {},
		},
		{
			name:      "blank title",
			mutate:    func(in *domain.ProductInput) { in.Title = "" },
			wantField: "product.title",
		},
		{
			name:      "title too short",
			mutate:    func(in *domain.ProductInput) { in.Title = "ab" },
			wantField: "product.title",
		},
		{
			name:      "title too long",
			mutate:    func(in *domain.ProductInput) { in.Title = strings.Repeat("x", 51) },
			wantField: "product.title",
		},
		{
			name:      "vendor too short",
			mutate:    func(in *domain.ProductInput) { in.Vendor = "ab" },
			wantField: "product.vendor",
		},
		{
			name:      "missing external id",
			mutate:    func(in *domain.ProductInput) { in.ExternalID = 0 },
			wantField: "product.external_id",
		},
		{
			name:      "variant sku too short",
			mutate:    func(in *domain.ProductInput) { in.Variants[0].SKU = "ab" },
			wantField: "product.variants[0].sku",
		},
		{
			name:      "variant price missing",
			mutate:    func(in *domain.ProductInput) { in.Variants[0].Price = 0 },
			wantField: "product.variants[0].price",
		},
		{
			name:      "variant price below minimum",
			mutate:    func(in *domain.ProductInput) { in.Variants[0].Price = 0.001 },
			wantField: "product.variants[0].price",
		},
		{
			name:      "variant price above maximum",
			mutate:    func(in *domain.ProductInput) { in.Variants[0].Price = 10000 },
			wantField: "product.variants[0].price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)

			err := v.ValidateProduct("test", in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			require.True(t, domain.IsValidationError(err))
			fields := domain.GetValidationFields(err)
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidateProduct_MessageWording(t *testing.T) {
	v := NewValidator()

	in := domain.ProductInput{
		ExternalID: 1,
		Title:      "",
		Vendor:     "Acme Coffee",
		Type:       "Coffee",
		Variants: []domain.VariantInput{
			{ExternalID: 2, Title: "250g bag", SKU: "ESP-250", Price: 0},
		},
	}

	err := v.ValidateProduct("test", in)
	require.Error(t, err)
	fields := domain.GetValidationFields(err)

	assert.Equal(t, "Title cannot be blank", fields["product.title"])
	assert.Equal(t, "Price cannot be empty", fields["product.variants[0].price"])
}

func TestFieldPath(t *testing.T) {
	tests := []struct {
		namespace string
		want      string
	}{
		{"ProductInput.Title", "product.title"},
		{"ProductInput.ExternalID", "product.external_id"},
		{"ProductInput.Type", "product.product_type"},
		{"ProductInput.Variants[1].SKU", "product.variants[1].sku"},
		{"ProductInput.Variants[0].Price", "product.variants[0].price"},
		{"VariantInput.Title", "variant.title"},
		{"VariantInput.ExternalID", "variant.external_id"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, fieldPath(tt.namespace), "namespace %s", tt.namespace)
	}
}

func TestValidateVariant_UsesVariantFieldPaths(t *testing.T) {
	v := NewValidator()

	err := v.ValidateVariant("test", domain.VariantInput{
		ExternalID: 0,
		Title:      "ab",
		SKU:        "x",
		Price:      0,
	})
	require.Error(t, err)
	require.True(t, domain.IsValidationError(err))

	fields := domain.GetValidationFields(err)
	assert.Contains(t, fields, "variant.external_id")
	assert.Contains(t, fields, "variant.title")
	assert.Contains(t, fields, "variant.sku")
	assert.Contains(t, fields, "variant.price")
}

func TestFilterBlankVariants(t *testing.T) {
	variants := []domain.VariantInput{
		{Title: "Keep me", SKU: "SKU-1"},
		{Title: ""},
		{Title: "   \t "},
		{Title: "Also kept", SKU: "SKU-2"},
		{Title: "", SKU: "has-sku-but-no-title", Price: 9.99},
	}

	active := FilterBlankVariants(variants)

	require.Len(t, active, 2)
	assert.Equal(t, "Keep me", active[0].Title)
	assert.Equal(t, "Also kept", active[1].Title)
}
