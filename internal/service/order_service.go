package service

import (
	"context"
	"errors"
	"time"

	"fsanano/shop-api/internal/model"
	"fsanano/shop-api/internal/repository"
	"fsanano/shop-api/internal/validator"
)

const recentOrdersWindow = 7 * 24 * time.Hour

type OrderService struct {
	orders   OrderRepository
	products ProductRepository
	resolver resolver
	now      func() time.Time
}

func NewOrderService(orders OrderRepository, products ProductRepository, users UserRepository) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		resolver: resolver{users: users, products: products},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for orderDate and the recent
// orders window.
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

type LineItemInput struct {
	Product  string `json:"product"`
	Quantity *int   `json:"quantity"`
}

type PlaceOrderInput struct {
	User     string          `json:"user"`
	Products []LineItemInput `json:"products"`
}

// UpdateOrderInput holds the fields a caller may replace. Absent fields are nil.
type UpdateOrderInput struct {
	User      *string          `json:"user"`
	Products  *[]LineItemInput `json:"products"`
	OrderDate *time.Time       `json:"orderDate"`
}

// Place validates the request, then walks the line items in order: load the
// product, check its stock, decrement it. The order is written only after
// every item has been decremented.
//
// There is no rollback. If item N fails, items before it stay decremented.
// The decrement itself is conditional on the stock still being sufficient,
// so concurrent orders cannot push a product below zero.
func (s *OrderService) Place(ctx context.Context, in PlaceOrderInput) (*model.Order, error) {
	userID, ok := validator.ParseID(in.User)
	if !ok {
		return nil, invalid("Invalid user ID")
	}
	items, ok := parseLineItems(in.Products)
	if !ok || len(items) == 0 {
		return nil, invalid("Invalid product details")
	}

	for _, li := range items {
		p, err := s.products.GetProduct(ctx, li.Product)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound("Product with ID %s not found", li.Product.Hex())
			}
			return nil, err
		}

		if p.StockQuantity < li.Quantity {
			return nil, insufficientStock(p.Name)
		}

		if _, err := s.products.DecrementStock(ctx, li.Product, li.Quantity); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, insufficientStock(p.Name)
			}
			return nil, err
		}
	}

	o := &model.Order{
		User:      userID,
		Products:  items,
		OrderDate: s.now(),
	}
	if err := s.orders.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context) ([]model.OrderView, error) {
	orders, err := s.orders.ListOrders(ctx, model.OrderFilter{})
	if err != nil {
		return nil, err
	}
	return s.resolver.resolve(ctx, orders)
}

// Update merges the supplied fields into the order. Line items are checked
// for shape only; stock is not re-validated against the new quantities.
func (s *OrderService) Update(ctx context.Context, id string, in UpdateOrderInput) (*model.OrderView, error) {
	oid, ok := validator.ParseID(id)
	if !ok {
		return nil, invalid("Invalid order ID")
	}

	var patch model.OrderPatch
	if in.User != nil {
		userID, ok := validator.ParseID(*in.User)
		if !ok {
			return nil, invalid("Invalid user ID")
		}
		patch.User = &userID
	}
	if in.Products != nil {
		items, ok := parseLineItems(*in.Products)
		if !ok || len(items) == 0 {
			return nil, invalid("Invalid product details in update")
		}
		patch.Products = items
	}
	patch.OrderDate = in.OrderDate

	o, err := s.orders.UpdateOrder(ctx, oid, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Order not found")
		}
		return nil, err
	}

	views, err := s.resolver.resolve(ctx, []model.Order{*o})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// LastSevenDays returns orders whose orderDate falls in the past week.
func (s *OrderService) LastSevenDays(ctx context.Context) ([]model.OrderView, error) {
	orders, err := s.orders.ListOrders(ctx, model.OrderFilter{Since: s.now().Add(-recentOrdersWindow)})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, noResults("No orders found in the last 7 days")
	}
	return s.resolver.resolve(ctx, orders)
}

func (s *OrderService) ByUser(ctx context.Context, userID string) ([]model.OrderView, error) {
	oid, ok := validator.ParseID(userID)
	if !ok {
		return nil, invalid("Invalid user ID")
	}

	orders, err := s.orders.ListOrders(ctx, model.OrderFilter{UserID: oid})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, noResults("No orders found for this user")
	}
	return s.resolver.resolve(ctx, orders)
}

// BuyersOf lists each user who ordered the product once, however many orders
// they placed for it.
func (s *OrderService) BuyersOf(ctx context.Context, productID string) ([]model.UserRef, error) {
	oid, ok := validator.ParseID(productID)
	if !ok {
		return nil, invalid("Invalid product ID")
	}

	orders, err := s.orders.ListOrders(ctx, model.OrderFilter{ProductID: oid})
	if err != nil {
		return nil, err
	}

	users, err := s.resolver.buyers(ctx, orders)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, noResults("No users found who bought this product")
	}
	return users, nil
}

func parseLineItems(in []LineItemInput) ([]model.LineItem, bool) {
	items := make([]model.LineItem, 0, len(in))
	for _, li := range in {
		if !validator.LineItem(li.Product, li.Quantity) {
			return nil, false
		}
		pid, _ := validator.ParseID(li.Product)
		items = append(items, model.LineItem{Product: pid, Quantity: *li.Quantity})
	}
	return items, true
}
