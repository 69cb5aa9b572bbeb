package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"fsanano/shop-api/internal/model"
	"fsanano/shop-api/internal/repository"
	"fsanano/shop-api/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	repo     *repository.MemoryRepository
	users    *service.UserService
	products *service.ProductService
	orders   *service.OrderService
}

func newFixture() *fixture {
	repo := repository.NewMemoryRepository()
	return &fixture{
		repo:     repo,
		users:    service.NewUserService(repo),
		products: service.NewProductService(repo),
		orders:   service.NewOrderService(repo, repo, repo),
	}
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func (f *fixture) user(t *testing.T, name, email string) *model.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), service.CreateUserInput{Name: name, Email: email, Phone: "555-0100"})
	require.NoError(t, err)
	return u
}

func (f *fixture) product(t *testing.T, name string, price float64, stock int) *model.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), service.CreateProductInput{
		Name:          name,
		Category:      "tools",
		Price:         floatPtr(price),
		StockQuantity: intPtr(stock),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	p, err := f.repo.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func line(p *model.Product, qty int) service.LineItemInput {
	return service.LineItemInput{Product: p.ID.Hex(), Quantity: intPtr(qty)}
}

func TestPlaceOrder_DecrementsEachProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u := f.user(t, "Ada", "ada@example.com")
	hammer := f.product(t, "Hammer", 12.5, 10)
	nails := f.product(t, "Nails", 0.1, 500)

	order, err := f.orders.Place(ctx, service.PlaceOrderInput{
		User:     u.ID.Hex(),
		Products: []service.LineItemInput{line(hammer, 2), line(nails, 150)},
	})
	require.NoError(t, err)

	assert.False(t, order.ID.IsZero())
	assert.Equal(t, u.ID, order.User)
	require.Len(t, order.Products, 2)
	assert.Equal(t, model.LineItem{Product: hammer.ID, Quantity: 2}, order.Products[0])
	assert.Equal(t, model.LineItem{Product: nails.ID, Quantity: 150}, order.Products[1])

	assert.Equal(t, 8, f.stock(t, hammer.ID))
	assert.Equal(t, 350, f.stock(t, nails.ID))

	all, err := f.orders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPlaceOrder_InsufficientStockKeepsEarlierDecrements(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u := f.user(t, "Ada", "ada@example.com")
	first := f.product(t, "First", 1, 5)
	second := f.product(t, "Second", 1, 1)

	_, err := f.orders.Place(ctx, service.PlaceOrderInput{
		User:     u.ID.Hex(),
		Products: []service.LineItemInput{line(first, 3), line(second, 2)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrInsufficientStock)
	assert.Equal(t, "Not enough stock for product: Second", err.Error())

	// No rollback: the first item was already written.
	assert.Equal(t, 2, f.stock(t, first.ID))
	assert.Equal(t, 1, f.stock(t, second.ID))

	orders, err := f.repo.ListOrders(ctx, model.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u := f.user(t, "Ada", "ada@example.com")
	p := f.product(t, "Real", 1, 5)
	missing := primitive.NewObjectID()

	_, err := f.orders.Place(ctx, service.PlaceOrderInput{
		User: u.ID.Hex(),
		Products: []service.LineItemInput{
			line(p, 1),
			{Product: missing.Hex(), Quantity: intPtr(1)},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, "Product with ID "+missing.Hex()+" not found", err.Error())
	assert.Equal(t, 4, f.stock(t, p.ID))
}

func TestPlaceOrder_InvalidInput(t *testing.T) {
	f := newFixture()
	u := f.user(t, "Ada", "ada@example.com")
	p := f.product(t, "Widget", 10, 5)

	tests := []struct {
		name    string
		in      service.PlaceOrderInput
		message string
	}{
		{
			name:    "bad user id",
			in:      service.PlaceOrderInput{User: "123", Products: []service.LineItemInput{line(p, 1)}},
			message: "Invalid user ID",
		},
		{
			name:    "no line items",
			in:      service.PlaceOrderInput{User: u.ID.Hex()},
			message: "Invalid product details",
		},
		{
			name:    "bad product id",
			in:      service.PlaceOrderInput{User: u.ID.Hex(), Products: []service.LineItemInput{{Product: "xyz", Quantity: intPtr(1)}}},
			message: "Invalid product details",
		},
		{
			name:    "missing quantity",
			in:      service.PlaceOrderInput{User: u.ID.Hex(), Products: []service.LineItemInput{{Product: p.ID.Hex()}}},
			message: "Invalid product details",
		},
		{
			name:    "zero quantity",
			in:      service.PlaceOrderInput{User: u.ID.Hex(), Products: []service.LineItemInput{line(p, 0)}},
			message: "Invalid product details",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.Place(context.Background(), tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
			assert.Equal(t, tt.message, err.Error())
		})
	}

	assert.Equal(t, 5, f.stock(t, p.ID), "validation failures must not touch stock")
}

func TestPlaceOrder_WidgetSellsOut(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u := f.user(t, "Ada", "ada@example.com")
	widget := f.product(t, "Widget", 10, 5)

	_, err := f.orders.Place(ctx, service.PlaceOrderInput{User: u.ID.Hex(), Products: []service.LineItemInput{line(widget, 5)}})
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t, widget.ID))

	_, err = f.orders.Place(ctx, service.PlaceOrderInput{User: u.ID.Hex(), Products: []service.LineItemInput{line(widget, 1)}})
	assert.ErrorIs(t, err, service.ErrInsufficientStock)
	assert.Equal(t, 0, f.stock(t, widget.ID))
}

func TestPlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture()
	u := f.user(t, "Ada", "ada@example.com")
	initialStock := 10
	p := f.product(t, "Hot Item", 10, initialStock)

	concurrentRequests := 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < concurrentRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.Place(context.Background(), service.PlaceOrderInput{
				User:     u.ID.Hex(),
				Products: []service.LineItemInput{line(p, 1)},
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, initialStock, successes)
	assert.Equal(t, 0, f.stock(t, p.ID))
}

func TestLastSevenDays(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

	u := f.user(t, "Ada", "ada@example.com")
	p := f.product(t, "Widget", 10, 100)

	_, err := f.orders.LastSevenDays(ctx)
	assert.ErrorIs(t, err, service.ErrNoResults)

	f.orders.SetClock(func() time.Time { return now.Add(-10 * 24 * time.Hour) })
	_, err = f.orders.Place(ctx, service.PlaceOrderInput{User: u.ID.Hex(), Products: []service.LineItemInput{line(p, 1)}})
	require.NoError(t, err)

	f.orders.SetClock(func() time.Time { return now })
	_, err = f.orders.LastSevenDays(ctx)
	require.Error(t, err, "an order older than a week does not count")
	assert.ErrorIs(t, err, service.ErrNoResults)
	assert.Equal(t, "No orders found in the last 7 days", err.Error())

	f.orders.SetClock(func() time.Time { return now.Add(-2 * 24 * time.Hour) })
	recent, err := f.orders.Place(ctx, service.PlaceOrderInput{User: u.ID.Hex(), Products: []service.LineItemInput{line(p, 2)}})
	require.NoError(t, err)

	f.orders.SetClock(func() time.Time { return now })
	views, err := f.orders.LastSevenDays(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, recent.ID, views[0].ID)
	require.NotNil(t, views[0].User)
	assert.Equal(t, "Ada", views[0].User.Name)
	assert.Equal(t, "ada@example.com", views[0].User.Email)
	require.Len(t, views[0].Products, 1)
	require.NotNil(t, views[0].Products[0].Product)
	assert.Equal(t, &model.ProductRef{ID: p.ID, Name: "Widget", Category: "tools", Price: 10}, views[0].Products[0].Product)
	assert.Equal(t, 2, views[0].Products[0].Quantity)
}

func TestByUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	ada := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	p := f.product(t, "Widget", 10, 100)

	_, err := f.orders.ByUser(ctx, "not-an-id")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.orders.ByUser(ctx, ada.ID.Hex())
	assert.ErrorIs(t, err, service.ErrNoResults)

	for _, u := range []*model.User{ada, ada, bob} {
		_, err := f.orders.Place(ctx, service.PlaceOrderInput{User: u.ID.Hex(), Products: []service.LineItemInput{line(p, 1)}})
		require.NoError(t, err)
	}

	views, err := f.orders.ByUser(ctx, ada.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, ada.ID, v.User.ID)
	}
}

func TestBuyersOf_DistinctUsers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	ada := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	widget := f.product(t, "Widget", 10, 100)
	other := f.product(t, "Other", 1, 100)

	_, err := f.orders.BuyersOf(ctx, widget.ID.Hex())
	assert.ErrorIs(t, err, service.ErrNoResults)

	place := func(u *model.User, items ...service.LineItemInput) {
		_, err := f.orders.Place(ctx, service.PlaceOrderInput{User: u.ID.Hex(), Products: items})
		require.NoError(t, err)
	}
	place(ada, line(widget, 1))
	place(bob, line(other, 1), line(widget, 2))
	place(ada, line(widget, 3))
	place(ada, line(other, 1))

	buyers, err := f.orders.BuyersOf(ctx, widget.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []model.UserRef{
		{ID: ada.ID, Name: "Ada", Email: "ada@example.com"},
		{ID: bob.ID, Name: "Bob", Email: "bob@example.com"},
	}, buyers)

	_, err = f.orders.BuyersOf(ctx, "bad")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestUpdateOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	ada := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	p := f.product(t, "Widget", 10, 3)

	order, err := f.orders.Place(ctx, service.PlaceOrderInput{User: ada.ID.Hex(), Products: []service.LineItemInput{line(p, 1)}})
	require.NoError(t, err)

	t.Run("replaces user and line items without checking stock", func(t *testing.T) {
		items := []service.LineItemInput{line(p, 99)}
		view, err := f.orders.Update(ctx, order.ID.Hex(), service.UpdateOrderInput{
			User:     strPtr(bob.ID.Hex()),
			Products: &items,
		})
		require.NoError(t, err)
		assert.Equal(t, "Bob", view.User.Name)
		require.Len(t, view.Products, 1)
		assert.Equal(t, 99, view.Products[0].Quantity)
		assert.Equal(t, "Widget", view.Products[0].Product.Name)
		assert.Equal(t, 2, f.stock(t, p.ID), "update never touches stock")
	})

	t.Run("keeps fields that were not supplied", func(t *testing.T) {
		date := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		view, err := f.orders.Update(ctx, order.ID.Hex(), service.UpdateOrderInput{OrderDate: &date})
		require.NoError(t, err)
		assert.True(t, date.Equal(view.OrderDate))
		assert.Equal(t, bob.ID, view.User.ID)
		assert.Equal(t, 99, view.Products[0].Quantity)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := f.orders.Update(ctx, "nope", service.UpdateOrderInput{})
		assert.EqualError(t, err, "Invalid order ID")

		_, err = f.orders.Update(ctx, order.ID.Hex(), service.UpdateOrderInput{User: strPtr("nope")})
		assert.EqualError(t, err, "Invalid user ID")

		bad := []service.LineItemInput{{Product: p.ID.Hex()}}
		_, err = f.orders.Update(ctx, order.ID.Hex(), service.UpdateOrderInput{Products: &bad})
		assert.EqualError(t, err, "Invalid product details in update")
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.orders.Update(ctx, primitive.NewObjectID().Hex(), service.UpdateOrderInput{})
		assert.ErrorIs(t, err, service.ErrNotFound)
		assert.EqualError(t, err, "Order not found")
	})
}

func TestReferencedUpdatesDoNotRewriteOrders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u := f.user(t, "Ada", "ada@example.com")
	p := f.product(t, "Widget", 10, 10)

	order, err := f.orders.Place(ctx, service.PlaceOrderInput{User: u.ID.Hex(), Products: []service.LineItemInput{line(p, 4)}})
	require.NoError(t, err)

	_, err = f.products.Update(ctx, p.ID.Hex(), model.ProductPatch{Name: strPtr("Gadget"), StockQuantity: intPtr(1)})
	require.NoError(t, err)
	_, err = f.users.Update(ctx, u.ID.Hex(), model.UserPatch{Name: strPtr("Ada L.")})
	require.NoError(t, err)

	stored, err := f.repo.ListOrders(ctx, model.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, order.Products, stored[0].Products)
	assert.Equal(t, order.UpdatedAt, stored[0].UpdatedAt)

	views, err := f.orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Ada L.", views[0].User.Name)
	assert.Equal(t, "Gadget", views[0].Products[0].Product.Name)
	assert.Equal(t, 4, views[0].Products[0].Quantity)
}

func TestList_MissingReferencesResolveToNil(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	ghostUser := primitive.NewObjectID()
	ghostProduct := primitive.NewObjectID()
	require.NoError(t, f.repo.CreateOrder(ctx, &model.Order{
		User:     ghostUser,
		Products: []model.LineItem{{Product: ghostProduct, Quantity: 1}},
	}))

	views, err := f.orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].User)
	require.Len(t, views[0].Products, 1)
	assert.Nil(t, views[0].Products[0].Product)
}
