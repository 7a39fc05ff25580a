package handler

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"path/filepath"

	"catalog/internal/service"
)

// ImageHandler serves stored variant images.
type ImageHandler struct {
	images *service.ImageService
	logger *slog.Logger
}

func NewImageHandler(images *service.ImageService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		images: images,
		logger: logger,
	}
}

// Serve handles GET /images/{product}/{file...}. The key is re-rooted under
// images/ so a crafted path can never reach outside the upload directory;
// the storage layer enforces the same boundary.
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := path.Join("images", r.PathValue("product"), r.PathValue("file"))

	f, err := h.images.Open(r.Context(), key)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	defer f.Close()

	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := io.Copy(w, f); err != nil {
		h.logger.Debug("image copy aborted", "key", key, "error", err)
	}
}
