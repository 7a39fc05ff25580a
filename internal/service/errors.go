package service

import (
	"catalog/internal/domain"
)

// Batch uniqueness errors - use domain.ECONFLICT
var (
	ErrDuplicateVariantExternalID = domain.Errorf(domain.ECONFLICT, "", "External ID must be unique for each variant")
	ErrDuplicateVariantTitle      = domain.Errorf(domain.ECONFLICT, "", "Title must be unique for each variant")
	ErrDuplicateVariantSKU        = domain.Errorf(domain.ECONFLICT, "", "SKU must be unique for each variant")
)

// Upload errors - use domain.EINVALID
var (
	ErrInvalidFilename = domain.Errorf(domain.EINVALID, "", "Invalid file name")
	ErrEmptyUpload     = domain.Errorf(domain.EINVALID, "", "Uploaded file is empty")
)
