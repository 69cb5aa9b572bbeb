package service

import (
	"context"

	"fsanano/shop-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The repository package provides Mongo, Postgres and in-memory
// implementations of these.

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)
	FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, patch model.UserPatch) (*model.User, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Product, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, patch model.ProductPatch) (*model.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (*model.Product, error)
	TotalStock(ctx context.Context) (total int64, count int64, err error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *model.Order) error
	ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, error)
	UpdateOrder(ctx context.Context, id primitive.ObjectID, patch model.OrderPatch) (*model.Order, error)
}

// Store is everything the services need from one backend.
type Store interface {
	UserRepository
	ProductRepository
	OrderRepository
	Ping(ctx context.Context) error
}
