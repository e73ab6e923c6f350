package catalog

import "errors"

// Sentinel errors for catalog loading.
var (
	ErrReadCatalog    = errors.New("failed to read catalog")
	ErrInvalidCatalog = errors.New("invalid catalog")
)
