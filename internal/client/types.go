package client

import (
	"fmt"
	"time"

	"fsanano/shop-api/internal/model"
)

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CreateProductRequest struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
}

type LineItem struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	User     string     `json:"user"`
	Products []LineItem `json:"products"`
}

type UpdateOrderRequest struct {
	User      *string     `json:"user,omitempty"`
	Products  *[]LineItem `json:"products,omitempty"`
	OrderDate *time.Time  `json:"orderDate,omitempty"`
}

// Snapshot is the full state of a shop as seen through the API.
type Snapshot struct {
	Users    []model.User
	Products []model.Product
	Orders   []model.OrderView
}

// APIError is a non-2xx reply. Message holds either the "error" or the
// "message" field of the body; NoResults is set for the latter.
type APIError struct {
	StatusCode int
	Message    string
	NoResults  bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shop api error: %d %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
