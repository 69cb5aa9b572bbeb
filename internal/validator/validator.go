// Package validator holds the pure input checks run before every mutation
// that takes caller-supplied identifiers.
package validator

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IsValidID reports whether s is a 24 character hex string, the textual form
// of a 12 byte ObjectID.
func IsValidID(s string) bool {
	return len(s) == 24 && primitive.IsValidObjectID(s)
}

// ParseID converts a validated id. ok is false when s is not a valid id.
func ParseID(s string) (primitive.ObjectID, bool) {
	if !IsValidID(s) {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// LineItem checks a single order line: a valid product id and a positive
// quantity. A nil quantity means the field was missing.
func LineItem(productID string, quantity *int) bool {
	if !IsValidID(productID) {
		return false
	}
	return quantity != nil && *quantity > 0
}

// Required reports whether every value is non-blank.
func Required(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// NonNegative reports whether an optional integer is absent or >= 0.
func NonNegative(v *int) bool {
	return v == nil || *v >= 0
}
