package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"catalog/internal/domain"
	"catalog/internal/storage"
)

var (
	// filenameChars is the allow-list for client-supplied file names.
	filenameChars = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	// unsafeTitleChars are stripped from titles used in generated file names.
	unsafeTitleChars = regexp.MustCompile(`[\s/\\<>:"|?*]`)
)

const defaultImageExt = "jpg"

// ImageService stores variant image files and resolves submitted image data
// to persisted image rows.
type ImageService struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewImageService(store storage.Storage, logger *slog.Logger) *ImageService {
	return &ImageService{
		storage: store,
		logger:  logger,
	}
}

// Resolve turns the image data on a variant input into the image row the
// variant should reference, persisting whatever is needed:
//
//   - no reference and no upload: no image
//   - reference with an external ID: reuse the already-imported row if one
//     exists, otherwise insert a new row carrying that external ID
//   - reference without an external ID: insert an independent copy
//   - uploaded file: store the file, then insert a row pointing at it
//
// An uploaded file wins over a stale reference from the same form.
func (s *ImageService) Resolve(ctx context.Context, st Stores, in domain.VariantInput) (*domain.Image, error) {
	const op = "ImageService.Resolve"

	if in.ImageFile != nil {
		src, err := s.StoreFile(ctx, in.ProductID, in.Title, *in.ImageFile)
		if err != nil {
			return nil, err
		}
		img, err := st.Images.Insert(ctx, domain.Image{Src: src})
		if err != nil {
			return nil, err
		}
		return &img, nil
	}

	ref := in.FeaturedImage
	if ref == nil {
		return nil, nil
	}

	if ref.ExternalID.Valid {
		existing, err := st.Images.FindByExternalID(ctx, ref.ExternalID.Int64)
		if err == nil {
			return existing, nil
		}
		if domain.ErrorCode(err) != domain.ENOTFOUND {
			return nil, err
		}
	}

	img, err := st.Images.Insert(ctx, domain.Image{
		ExternalID: ref.ExternalID,
		Src:        ref.Src,
		CreatedAt:  ref.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// StoreFile writes an uploaded file under the product's image directory and
// returns the storage key. The stored name is derived from the variant title
// with a timestamp suffix so repeat uploads never collide; the client's file
// name only contributes the extension and must be plain
// (letters, digits, dot, underscore, hyphen).
func (s *ImageService) StoreFile(ctx context.Context, productID int64, title string, upload domain.FileUpload) (string, error) {
	const op = "ImageService.StoreFile"

	if !filenameChars.MatchString(upload.Filename) {
		return "", ErrInvalidFilename
	}
	if upload.Content == nil {
		return "", ErrEmptyUpload
	}

	ext := strings.TrimPrefix(filepath.Ext(upload.Filename), ".")
	if ext == "" {
		ext = defaultImageExt
	}

	sanitized := unsafeTitleChars.ReplaceAllString(title, "_")
	filename := fmt.Sprintf("%s_%d.%s", sanitized, time.Now().UnixMilli(), ext)
	key := fmt.Sprintf("images/%d/%s", productID, filename)

	src, err := s.storage.Put(ctx, key, upload.Content)
	if err != nil {
		return "", domain.Internal(err, op, "failed to store image file")
	}

	s.logger.Debug("stored image file", "key", src, "product_id", productID)
	return src, nil
}

// Open returns a reader for a stored image by its key.
func (s *ImageService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.storage.Get(ctx, key)
}
