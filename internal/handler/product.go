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

// maxUploadBytes bounds the in-memory portion of multipart parsing.
const maxUploadBytes = 10 << 20

// variantRows is how many variant rows the create form renders.
const variantRows = 3

// ProductHandler renders the catalog pages and accepts product submissions.
type ProductHandler struct {
	products *service.ProductService
	renderer *Renderer
	logger   *slog.Logger
	pageSize int
}

func NewProductHandler(products *service.ProductService, renderer *Renderer, pageSize int, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		renderer: renderer,
		logger:   logger,
		pageSize: pageSize,
	}
}

// productFormData is what the form templates render: the echoed submission
// plus any field errors keyed by form path.
type productFormData struct {
	Form    domain.ProductInput
	Errors  map[string]string
	Message string
}

// VariantAt returns the i-th submitted variant row, or a fresh row so the
// form can always render its fixed number of rows. Fresh rows start
// available, matching the column default.
func (d productFormData) VariantAt(i int) domain.VariantInput {
	if i < len(d.Form.Variants) {
		return d.Form.Variants[i]
	}
	return domain.VariantInput{Available: true}
}

// Error returns the message for a form field path, if any.
func (d productFormData) Error(path string) string {
	return d.Errors[path]
}

// Rows enumerates the variant row indexes the form renders.
func (d productFormData) Rows() []int {
	n := variantRows
	if len(d.Form.Variants) > n {
		n = len(d.Form.Variants)
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

type indexData struct {
	Page *domain.ProductPage
	productFormData
}

// Index handles GET /
func (h *ProductHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := h.loadPage(r)
	if err != nil {
		InternalErrorResponse(w, r, err)
		return
	}

	h.renderer.RenderHTTP(w, "index", indexData{Page: page})
}

// Table handles GET /products, the paged table fragment.
func (h *ProductHandler) Table(w http.ResponseWriter, r *http.Request) {
	page, err := h.loadPage(r)
	if err != nil {
		InternalErrorResponse(w, r, err)
		return
	}

	if err := h.renderer.RenderFragment(w, "product-table", page); err != nil {
		h.logger.Error("render product table", "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// Save handles POST /products, the create form.
func (h *ProductHandler) Save(w http.ResponseWriter, r *http.Request) {
	in, closers, err := parseProductForm(r)
	defer closeAll(closers)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if _, err := h.products.SaveProduct(r.Context(), in); err != nil {
		h.renderFormError(w, r, in, err)
		return
	}

	h.respondSaved(w, r)
}

// Update handles POST /products/{uid}, the edit form.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("uid"), 10, 64)
	if err != nil {
		ErrorResponse(w, r, domain.Invalid("product.update", "invalid product id"))
		return
	}

	in, closers, err := parseProductForm(r)
	defer closeAll(closers)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	in.ID = id

	if _, err := h.products.UpdateProduct(r.Context(), in); err != nil {
		h.renderFormError(w, r, in, err)
		return
	}

	h.respondSaved(w, r)
}

// Edit handles GET /products/edit/{uid}.
func (h *ProductHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("uid"), 10, 64)
	if err != nil {
		ErrorResponse(w, r, domain.Invalid("product.edit", "invalid product id"))
		return
	}

	product, err := h.products.GetProductWithDetailsByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	h.renderer.RenderHTTP(w, "edit", productFormData{Form: productToInput(*product)})
}

// Delete handles DELETE /products/{uid}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("uid"), 10, 64)
	if err != nil {
		ErrorResponse(w, r, domain.Invalid("product.delete", "invalid product id"))
		return
	}

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	h.respondSaved(w, r)
}

// respondSaved answers a successful mutation: partial requests get the
// refreshed table fragment, full page requests get redirected home.
func (h *ProductHandler) respondSaved(w http.ResponseWriter, r *http.Request) {
	if !isPartialRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	page, err := h.products.GetAllProductsWithDetails(r.Context(), 0, &h.pageSize)
	if err != nil {
		InternalErrorResponse(w, r, err)
		return
	}
	if err := h.renderer.RenderFragment(w, "product-table", page); err != nil {
		h.logger.Error("render product table", "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// renderFormError re-renders the form with the submitted values and the
// failure translated to field or form level messages. The echoed values come
// straight from the parsed request, never from shared state.
func (h *ProductHandler) renderFormError(w http.ResponseWriter, r *http.Request, in domain.ProductInput, err error) {
	data := productFormData{Form: in}

	if fields := domain.GetValidationFields(err); fields != nil {
		data.Errors = fields
	} else {
		data.Message = domain.ErrorMessage(err)
		if domain.ErrorCode(err) == domain.EINTERNAL {
			h.logger.Error("product save failed", "error", err)
		}
	}

	status := ErrorCodeToHTTPStatus(domain.ErrorCode(err))
	if domain.IsValidationError(err) {
		status = http.StatusUnprocessableEntity
	}

	if isPartialRequest(r) {
		w.WriteHeader(status)
		if err := h.renderer.RenderFragment(w, "product-form", data); err != nil {
			h.logger.Error("render product form", "error", err)
		}
		return
	}

	page, pageErr := h.products.GetAllProductsWithDetails(r.Context(), 0, &h.pageSize)
	if pageErr != nil {
		InternalErrorResponse(w, r, pageErr)
		return
	}
	w.WriteHeader(status)
	h.renderer.RenderHTTP(w, "index", indexData{Page: page, productFormData: data})
}

// loadPage reads the page query parameter and fetches that product page.
func (h *ProductHandler) loadPage(r *http.Request) (*domain.ProductPage, error) {
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}
	return h.products.GetAllProductsWithDetails(r.Context(), page, &h.pageSize)
}

// isPartialRequest reports whether the client asked for a fragment instead
// of a full page.
func isPartialRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// parseProductForm reads a (possibly multipart) product submission. Any
// opened upload streams are returned so the caller can close them after the
// save completes.
func parseProductForm(r *http.Request) (domain.ProductInput, []multipart.File, error) {
	const op = "handler.parseProductForm"

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if err != http.ErrNotMultipart {
			return domain.ProductInput{}, nil, domain.Invalid(op, "could not parse form")
		}
		if err := r.ParseForm(); err != nil {
			return domain.ProductInput{}, nil, domain.Invalid(op, "could not parse form")
		}
	}

	in := domain.ProductInput{
		ID:         parseID(r.FormValue("uid")),
		ExternalID: parseID(r.FormValue("external_id")),
		Title:      r.FormValue("title"),
		Vendor:     r.FormValue("vendor"),
		Type:       r.FormValue("product_type"),
	}

	var closers []multipart.File
	for i := 0; ; i++ {
		prefix := fmt.Sprintf("variants[%d].", i)
		if _, ok := r.Form[prefix+"title"]; !ok {
			break
		}

		v := domain.VariantInput{
			ID:         parseID(r.FormValue(prefix + "uid")),
			ExternalID: parseID(r.FormValue(prefix + "external_id")),
			Title:      r.FormValue(prefix + "title"),
			Option1:    r.FormValue(prefix + "option1"),
			Option2:    r.FormValue(prefix + "option2"),
			Option3:    r.FormValue(prefix + "option3"),
			SKU:        r.FormValue(prefix + "sku"),
			Available:  r.FormValue(prefix+"available") != "",
		}
		if raw := r.FormValue(prefix + "price"); raw != "" {
			if price, err := strconv.ParseFloat(raw, 64); err == nil {
				v.Price = price
			}
		}

		if r.MultipartForm != nil {
			if headers := r.MultipartForm.File[prefix+"image_file"]; len(headers) > 0 && headers[0].Filename != "" {
				f, err := headers[0].Open()
				if err != nil {
					return domain.ProductInput{}, closers, domain.Internal(err, op, "could not read uploaded file")
				}
				closers = append(closers, f)
				v.ImageFile = &domain.FileUpload{
					Filename: headers[0].Filename,
					Content:  f,
				}
			}
		}

		in.Variants = append(in.Variants, v)
	}

	return in, closers, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		f.Close()
	}
}

func parseID(raw string) int64 {
	id, _ := strconv.ParseInt(raw, 10, 64)
	return id
}

// productToInput converts a stored product back into form values for the
// edit view.
func productToInput(p domain.Product) domain.ProductInput {
	in := domain.ProductInput{
		ID:         p.ID,
		ExternalID: p.ExternalID,
		Title:      p.Title,
		Vendor:     p.Vendor,
		Type:       p.Type,
		Variants:   make([]domain.VariantInput, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		in.Variants = append(in.Variants, variantToInput(v))
	}
	return in
}

// variantToInput converts a stored variant back into form values.
func variantToInput(v domain.Variant) domain.VariantInput {
	in := domain.VariantInput{
		ID:         v.ID,
		ExternalID: v.ExternalID,
		ProductID:  v.ProductID,
		Title:      v.Title,
		Option1:    v.Option1.String,
		Option2:    v.Option2.String,
		Option3:    v.Option3.String,
		SKU:        v.SKU,
		Price:      v.Price,
		Available:  v.Available,
	}
	if v.FeaturedImage != nil {
		in.FeaturedImage = &domain.ImageRef{
			ID:         v.FeaturedImage.ID,
			ExternalID: v.FeaturedImage.ExternalID,
			Src:        v.FeaturedImage.Src,
			CreatedAt:  v.FeaturedImage.CreatedAt,
		}
	}
	return in
}
