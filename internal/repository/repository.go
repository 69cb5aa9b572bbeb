package repository

import "errors"

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when a unique index rejects a write.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInsufficientStock is returned by DecrementStock when the product's
	// stock is lower than the requested quantity at write time.
	ErrInsufficientStock = errors.New("insufficient stock")
)
