package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"catalog/internal/domain"
)

// Validator wraps a shared go-playground validator instance and translates
// its errors into domain.ValidationError with form-facing field paths.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateProduct checks a product input, including any variants it carries.
// Blank variant rows should be filtered out before calling.
func (v *Validator) ValidateProduct(op string, in domain.ProductInput) error {
	return v.translate(op, v.validate.Struct(in))
}

// ValidateVariant checks a single variant input on its own.
func (v *Validator) ValidateVariant(op string, in domain.VariantInput) error {
	return v.translate(op, v.validate.Struct(in))
}

func (v *Validator) translate(op string, err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err, op, "validation failed")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		if _, ok := fields[path]; !ok {
			fields[path] = fieldMessage(fe)
		}
	}
	return &domain.ValidationError{Op: op, Fields: fields}
}

// FilterBlankVariants drops rows the form submitted empty. A row with a
// blank title is considered unfilled regardless of its other columns.
func FilterBlankVariants(variants []domain.VariantInput) []domain.VariantInput {
	active := make([]domain.VariantInput, 0, len(variants))
	for _, v := range variants {
		if v.Blank() {
			continue
		}
		active = append(active, v)
	}
	return active
}

// formNames maps struct field names to the names the form templates bind to.
var formNames = map[string]string{
	"ExternalID": "external_id",
	"Title":      "title",
	"Vendor":     "vendor",
	"Type":       "product_type",
	"Variants":   "variants",
	"SKU":        "sku",
	"Option1":    "option1",
	"Option2":    "option2",
	"Option3":    "option3",
	"Price":      "price",
	"Available":  "available",
}

// fieldLabels maps struct field names to the labels used in messages.
var fieldLabels = map[string]string{
	"ExternalID": "External id",
	"Title":      "Title",
	"Vendor":     "Vendor",
	"Type":       "Product type",
	"SKU":        "SKU",
	"Option1":    "Option 1",
	"Option2":    "Option 2",
	"Option3":    "Option 3",
	"Price":      "Price",
}

// fieldPath turns a validator namespace such as
// "ProductInput.Variants[1].SKU" into the form path "product.variants[1].sku".
// The root struct decides the prefix, so a bare variant submission yields
// "variant.sku" rather than a product path.
func fieldPath(namespace string) string {
	segments := strings.Split(namespace, ".")
	root := "product"
	if len(segments) > 0 {
		if segments[0] == "VariantInput" {
			root = "variant"
		}
		segments = segments[1:]
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, root)
	for _, seg := range segments {
		name, index := seg, ""
		if i := strings.IndexByte(seg, '['); i >= 0 {
			name, index = seg[:i], seg[i:]
		}
		if mapped, ok := formNames[name]; ok {
			name = mapped
		} else {
			name = strings.ToLower(name[:1]) + name[1:]
		}
		parts = append(parts, name+index)
	}
	return strings.Join(parts, ".")
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		if fe.Field() == "Price" {
			return "Price cannot be empty"
		}
		return fmt.Sprintf("%s cannot be blank", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
