package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error a service returns to the HTTP layer either wraps
// one of these or is an unexpected store failure.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNoResults marks a valid query that matched nothing.
	ErrNoResults = errors.New("no results")
)

// Error carries a caller-facing message alongside its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func invalid(msg string) error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

func notFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func noResults(msg string) error {
	return &Error{Kind: ErrNoResults, Message: msg}
}

func insufficientStock(productName string) error {
	return &Error{Kind: ErrInsufficientStock, Message: "Not enough stock for product: " + productName}
}
