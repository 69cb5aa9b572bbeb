package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"fsanano/shop-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository keeps every collection in process memory. Each call is
// atomic on its own, which matches the per-document guarantees of the real
// stores. Used for local development and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[primitive.ObjectID]model.User
	products map[primitive.ObjectID]model.Product
	orders   map[primitive.ObjectID]model.Order
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[primitive.ObjectID]model.User),
		products: make(map[primitive.ObjectID]model.Product),
		orders:   make(map[primitive.ObjectID]model.Order),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source.
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Users

func (r *MemoryRepository) CreateUser(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(u.Email, primitive.NilObjectID) {
		return ErrDuplicateKey
	}

	now := r.now()
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.users), nil
}

func (r *MemoryRepository) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []model.User{}
	for _, id := range uniqueIDs(ids) {
		if u, ok := r.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *MemoryRepository) UpdateUser(ctx context.Context, id primitive.ObjectID, patch model.UserPatch) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Email != nil && r.emailTaken(*patch.Email, id) {
		return nil, ErrDuplicateKey
	}

	assign(&u.Name, patch.Name)
	assign(&u.Email, patch.Email)
	assign(&u.Phone, patch.Phone)
	u.UpdatedAt = r.now()
	r.users[id] = u
	return &u, nil
}

// emailTaken matches the unique email index. Caller holds the lock.
func (r *MemoryRepository) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range r.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

// Products

func (r *MemoryRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	r.products[p.ID] = *p
	return nil
}

func (r *MemoryRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.products), nil
}

func (r *MemoryRepository) GetProduct(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := []model.Product{}
	for _, id := range uniqueIDs(ids) {
		if p, ok := r.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (r *MemoryRepository) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch model.ProductPatch) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}

	assign(&p.Name, patch.Name)
	assign(&p.Category, patch.Category)
	assign(&p.Price, patch.Price)
	assign(&p.StockQuantity, patch.StockQuantity)
	p.UpdatedAt = r.now()
	r.products[id] = p
	return &p, nil
}

func (r *MemoryRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok || p.StockQuantity < quantity {
		return nil, ErrInsufficientStock
	}

	p.StockQuantity -= quantity
	p.UpdatedAt = r.now()
	r.products[id] = p
	return &p, nil
}

func (r *MemoryRepository) TotalStock(ctx context.Context) (total int64, count int64, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		total += int64(p.StockQuantity)
		count++
	}
	return total, count, nil
}

// Orders

func (r *MemoryRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	o.ID = primitive.NewObjectID()
	o.CreatedAt, o.UpdatedAt = now, now
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}
	o.Products = slices.Clone(o.Products)
	r.orders[o.ID] = *o
	return nil
}

func (r *MemoryRepository) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := []model.Order{}
	for _, o := range sortedValues(r.orders) {
		if !f.UserID.IsZero() && o.User != f.UserID {
			continue
		}
		if !f.ProductID.IsZero() && !slices.ContainsFunc(o.Products, func(li model.LineItem) bool {
			return li.Product == f.ProductID
		}) {
			continue
		}
		if !f.Since.IsZero() && o.OrderDate.Before(f.Since) {
			continue
		}
		o.Products = slices.Clone(o.Products)
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *MemoryRepository) UpdateOrder(ctx context.Context, id primitive.ObjectID, patch model.OrderPatch) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}

	assign(&o.User, patch.User)
	assign(&o.OrderDate, patch.OrderDate)
	if patch.Products != nil {
		o.Products = slices.Clone(patch.Products)
	}
	o.UpdatedAt = r.now()
	r.orders[id] = o

	o.Products = slices.Clone(o.Products)
	return &o, nil
}

func assign[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// sortedValues returns map values ordered by id, which is creation order for
// ObjectIDs generated by this process.
func sortedValues[T any](m map[primitive.ObjectID]T) []T {
	ids := make([]primitive.ObjectID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b primitive.ObjectID) int {
		return strings.Compare(a.Hex(), b.Hex())
	})

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
