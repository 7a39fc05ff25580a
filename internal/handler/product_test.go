package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"catalog/internal/domain"
)

func TestParseProductForm_URLEncoded(t *testing.T) {
	form := url.Values{}
	form.Set("external_id", "1001")
	form.Set("title", "Espresso Blend")
	form.Set("vendor", "Acme Coffee")
	form.Set("product_type", "Coffee")
	form.Set("variants[0].external_id", "2001")
	form.Set("variants[0].title", "250g bag")
	form.Set("variants[0].sku", "ESP-250")
	form.Set("variants[0].price", "12.50")
	form.Set("variants[0].available", "true")
	form.Set("variants[1].external_id", "2002")
	form.Set("variants[1].title", "")
	form.Set("variants[1].sku", "")
	form.Set("variants[1].price", "")

	r := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, closers, err := parseProductForm(r)
	defer closeAll(closers)
	if err != nil {
		t.Fatalf("parseProductForm: %v", err)
	}

	if in.ExternalID != 1001 || in.Title != "Espresso Blend" || in.Type != "Coffee" {
		t.Errorf("unexpected product fields: %+v", in)
	}
	if len(in.Variants) != 2 {
		t.Fatalf("expected 2 variant rows (blank rows included), got %d", len(in.Variants))
	}

	v := in.Variants[0]
	if v.ExternalID != 2001 || v.SKU != "ESP-250" || v.Price != 12.50 || !v.Available {
		t.Errorf("unexpected variant fields: %+v", v)
	}
	if !in.Variants[1].Blank() {
		t.Error("second row should parse as a blank placeholder")
	}
}

func TestParseProductForm_MultipartWithFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("external_id", "1001")
	mw.WriteField("title", "Espresso Blend")
	mw.WriteField("vendor", "Acme Coffee")
	mw.WriteField("product_type", "Coffee")
	mw.WriteField("variants[0].external_id", "2001")
	mw.WriteField("variants[0].title", "250g bag")
	mw.WriteField("variants[0].sku", "ESP-250")
	mw.WriteField("variants[0].price", "12.50")
	fw, err := mw.CreateFormFile("variants[0].image_file", "photo.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("image-bytes"))
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/products", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	in, closers, err := parseProductForm(r)
	defer closeAll(closers)
	if err != nil {
		t.Fatalf("parseProductForm: %v", err)
	}

	if len(in.Variants) != 1 {
		t.Fatalf("expected 1 variant row, got %d", len(in.Variants))
	}
	upload := in.Variants[0].ImageFile
	if upload == nil {
		t.Fatal("expected an upload on the variant")
	}
	if upload.Filename != "photo.png" {
		t.Errorf("filename = %q", upload.Filename)
	}
}

func TestProductFormData_VariantAtAndRows(t *testing.T) {
	d := productFormData{
		Form: domain.ProductInput{
			Variants: []domain.VariantInput{{Title: "only row"}},
		},
	}

	if got := d.VariantAt(0).Title; got != "only row" {
		t.Errorf("VariantAt(0) = %q", got)
	}
	if got := d.VariantAt(2).Title; got != "" {
		t.Errorf("VariantAt out of range should be empty, got %q", got)
	}
	if rows := d.Rows(); len(rows) != variantRows {
		t.Errorf("Rows() = %d, want %d", len(rows), variantRows)
	}

	d.Form.Variants = make([]domain.VariantInput, 5)
	if rows := d.Rows(); len(rows) != 5 {
		t.Errorf("Rows() with 5 submitted = %d, want 5", len(rows))
	}
}

func TestProductFormData_FreshRowsStartAvailable(t *testing.T) {
	var d productFormData

	// An empty create form renders every row checked; a submitted row keeps
	// whatever the user chose.
	for _, i := range d.Rows() {
		if !d.VariantAt(i).Available {
			t.Errorf("fresh row %d should default to available", i)
		}
	}

	d.Form.Variants = []domain.VariantInput{{Title: "unchecked by user", Available: false}}
	if d.VariantAt(0).Available {
		t.Error("submitted row must keep its unchecked state")
	}
	if !d.VariantAt(1).Available {
		t.Error("rows beyond the submission should still default to available")
	}
}

func TestProductFormData_Error(t *testing.T) {
	d := productFormData{Errors: map[string]string{"product.title": "Title cannot be blank"}}

	if got := d.Error("product.title"); got != "Title cannot be blank" {
		t.Errorf("Error() = %q", got)
	}
	if got := d.Error("product.vendor"); got != "" {
		t.Errorf("missing field should be empty, got %q", got)
	}
}
