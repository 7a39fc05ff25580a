package handler

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"catalog/internal/domain"
	"catalog/internal/service"
)

// VariantHandler renders the standalone variant form and accepts variant
// submissions for a single product.
type VariantHandler struct {
	variants *service.VariantService
	products *service.ProductService
	renderer *Renderer
	logger   *slog.Logger
}

func NewVariantHandler(variants *service.VariantService, products *service.ProductService, renderer *Renderer, logger *slog.Logger) *VariantHandler {
	return &VariantHandler{
		variants: variants,
		products: products,
		renderer: renderer,
		logger:   logger,
	}
}

// variantFormData is what the variant form renders: the owning product, the
// echoed submission, and any field errors keyed by form path.
type variantFormData struct {
	ProductID int64
	Form      domain.VariantInput
	Errors    map[string]string
	Message   string
}

// Error returns the message for a form field path, if any.
func (d variantFormData) Error(path string) string {
	return d.Errors[path]
}

// Create handles GET /products/{uid}/variants/create.
func (h *VariantHandler) Create(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("uid"), 10, 64)
	if err != nil {
		ErrorResponse(w, r, domain.Invalid("variant.create", "invalid product id"))
		return
	}

	if _, err := h.products.GetProductByID(r.Context(), productID); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	h.renderer.RenderHTTP(w, "variant", variantFormData{
		ProductID: productID,
		Form:      domain.VariantInput{Available: true},
	})
}

// Save handles POST /products/{uid}/variants/create.
func (h *VariantHandler) Save(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("uid"), 10, 64)
	if err != nil {
		ErrorResponse(w, r, domain.Invalid("variant.save", "invalid product id"))
		return
	}

	in, closers, err := parseVariantForm(r)
	defer closeAll(closers)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	in.ProductID = productID

	saved, err := h.variants.SaveVariant(r.Context(), in)
	if err != nil {
		h.renderFormError(w, r, productID, in, err)
		return
	}

	h.respondSaved(w, r, productID, *saved)
}

// Edit handles GET /products/{uid}/variants/{vid}/update.
func (h *VariantHandler) Edit(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("uid"), 10, 64)
	if err != nil {
		ErrorResponse(w, r, domain.Invalid("variant.edit", "invalid product id"))
		return
	}
	variantID, err := strconv.ParseInt(r.PathValue("vid"), 10, 64)
	if err != nil {
		ErrorResponse(w, r, domain.Invalid("variant.edit", "invalid variant id"))
		return
	}

	variant, err := h.variants.FindVariantByIDAndProductID(r.Context(), variantID, productID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	h.renderer.RenderHTTP(w, "variant", variantFormData{
		ProductID: productID,
		Form:      variantToInput(*variant),
	})
}

// Update handles POST /products/{uid}/variants/{vid}/update.
func (h *VariantHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("uid"), 10, 64)
	if err != nil {
		ErrorResponse(w, r, domain.Invalid("variant.update", "invalid product id"))
		return
	}
	variantID, err := strconv.ParseInt(r.PathValue("vid"), 10, 64)
	if err != nil {
		ErrorResponse(w, r, domain.Invalid("variant.update", "invalid variant id"))
		return
	}

	in, closers, err := parseVariantForm(r)
	defer closeAll(closers)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	in.ID = variantID

	updated, err := h.variants.UpdateVariant(r.Context(), productID, in)
	if err != nil {
		h.renderFormError(w, r, productID, in, err)
		return
	}

	h.respondSaved(w, r, productID, *updated)
}

// respondSaved answers a successful save: partial requests get the form
// re-rendered with the persisted values (so a create becomes an update
// form), full page requests get redirected to the owning product.
func (h *VariantHandler) respondSaved(w http.ResponseWriter, r *http.Request, productID int64, v domain.Variant) {
	if !isPartialRequest(r) {
		http.Redirect(w, r, fmt.Sprintf("/products/edit/%d", productID), http.StatusSeeOther)
		return
	}

	data := variantFormData{ProductID: productID, Form: variantToInput(v)}
	if err := h.renderer.RenderFragment(w, "variant-form", data); err != nil {
		h.logger.Error("render variant form", "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// renderFormError re-renders the variant form with the submitted values and
// the failure translated to field or form level messages.
func (h *VariantHandler) renderFormError(w http.ResponseWriter, r *http.Request, productID int64, in domain.VariantInput, err error) {
	data := variantFormData{ProductID: productID, Form: in}

	if fields := domain.GetValidationFields(err); fields != nil {
		data.Errors = fields
	} else {
		data.Message = domain.ErrorMessage(err)
		if domain.ErrorCode(err) == domain.EINTERNAL {
			h.logger.Error("variant save failed", "error", err)
		}
	}

	status := ErrorCodeToHTTPStatus(domain.ErrorCode(err))
	if domain.IsValidationError(err) {
		status = http.StatusUnprocessableEntity
	}

	w.WriteHeader(status)
	if isPartialRequest(r) {
		if err := h.renderer.RenderFragment(w, "variant-form", data); err != nil {
			h.logger.Error("render variant form", "error", err)
		}
		return
	}
	h.renderer.RenderHTTP(w, "variant", data)
}

// parseVariantForm reads a (possibly multipart) single-variant submission.
// Any opened upload stream is returned so the caller can close it after the
// save completes.
func parseVariantForm(r *http.Request) (domain.VariantInput, []multipart.File, error) {
	const op = "handler.parseVariantForm"

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if err != http.ErrNotMultipart {
			return domain.VariantInput{}, nil, domain.Invalid(op, "could not parse form")
		}
		if err := r.ParseForm(); err != nil {
			return domain.VariantInput{}, nil, domain.Invalid(op, "could not parse form")
		}
	}

	in := domain.VariantInput{
		ID:         parseID(r.FormValue("uid")),
		ExternalID: parseID(r.FormValue("external_id")),
		Title:      r.FormValue("title"),
		Option1:    r.FormValue("option1"),
		Option2:    r.FormValue("option2"),
		Option3:    r.FormValue("option3"),
		SKU:        r.FormValue("sku"),
		Available:  r.FormValue("available") != "",
	}
	if raw := r.FormValue("price"); raw != "" {
		if price, err := strconv.ParseFloat(raw, 64); err == nil {
			in.Price = price
		}
	}

	var closers []multipart.File
	if r.MultipartForm != nil {
		if headers := r.MultipartForm.File["image_file"]; len(headers) > 0 && headers[0].Filename != "" {
			f, err := headers[0].Open()
			if err != nil {
				return domain.VariantInput{}, closers, domain.Internal(err, op, "could not read uploaded file")
			}
			closers = append(closers, f)
			in.ImageFile = &domain.FileUpload{
				Filename: headers[0].Filename,
				Content:  f,
			}
		}
	}

	return in, closers, nil
}
