package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fsanano/shop-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	db       *mongo.Database
	users    *mongo.Collection
	products *mongo.Collection
	orders   *mongo.Collection
	now      func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		db:       db,
		users:    db.Collection("users"),
		products: db.Collection("products"),
		orders:   db.Collection("orders"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the secondary indexes the queries rely on. Creating
// an index that already exists is a no-op.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	asc := func(key string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}}}
	}

	if _, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}

	if _, err := r.products.Indexes().CreateMany(ctx, []mongo.IndexModel{
		asc("name"),
		asc("category"),
	}); err != nil {
		return fmt.Errorf("failed to create products indexes: %w", err)
	}

	if _, err := r.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		asc("user"),
		asc("products.product"),
		{Keys: bson.D{{Key: "orderDate", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create orders indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

// Users

func (r *MongoRepository) CreateUser(ctx context.Context, u *model.User) error {
	now := r.now()
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now

	if _, err := r.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := r.findAll(ctx, r.users, bson.M{}, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *MongoRepository) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.User, error) {
	users := []model.User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.findAll(ctx, r.users, bson.M{"_id": bson.M{"$in": ids}}, &users); err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return users, nil
}

func (r *MongoRepository) UpdateUser(ctx context.Context, id primitive.ObjectID, patch model.UserPatch) (*model.User, error) {
	set := bson.D{{Key: "updatedAt", Value: r.now()}}
	set = appendSet(set, "name", patch.Name)
	set = appendSet(set, "email", patch.Email)
	set = appendSet(set, "phone", patch.Phone)

	var u model.User
	err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.D{{Key: "$set", Value: set}}, returnAfter()).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &u, nil
}

// Products

func (r *MongoRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	now := r.now()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now

	if _, err := r.products.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}
	if err := r.findAll(ctx, r.products, bson.M{}, &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *MongoRepository) GetProduct(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	var p model.Product
	if err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *MongoRepository) FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Product, error) {
	products := []model.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.findAll(ctx, r.products, bson.M{"_id": bson.M{"$in": ids}}, &products); err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

func (r *MongoRepository) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch model.ProductPatch) (*model.Product, error) {
	set := bson.D{{Key: "updatedAt", Value: r.now()}}
	set = appendSet(set, "name", patch.Name)
	set = appendSet(set, "category", patch.Category)
	set = appendSet(set, "price", patch.Price)
	set = appendSet(set, "stockQuantity", patch.StockQuantity)

	var p model.Product
	err := r.products.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.D{{Key: "$set", Value: set}}, returnAfter()).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &p, nil
}

// DecrementStock subtracts quantity in a single conditional update, so the
// stock can never drop below zero even under concurrent orders.
func (r *MongoRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (*model.Product, error) {
	filter := bson.M{"_id": id, "stockQuantity": bson.M{"$gte": quantity}}
	update := bson.M{
		"$inc": bson.M{"stockQuantity": -quantity},
		"$set": bson.M{"updatedAt": r.now()},
	}

	var p model.Product
	if err := r.products.FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("failed to update product stock: %w", err)
	}
	return &p, nil
}

// TotalStock sums stockQuantity over every product. count is the number of
// products seen, so callers can tell "no products" from a zero sum.
func (r *MongoRepository) TotalStock(ctx context.Context) (total int64, count int64, err error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalStock", Value: bson.D{{Key: "$sum", Value: "$stockQuantity"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.products.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate stock: %w", err)
	}

	var rows []struct {
		TotalStock int64 `bson:"totalStock"`
		Count      int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, 0, fmt.Errorf("failed to decode stock aggregate: %w", err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].TotalStock, rows[0].Count, nil
}

// Orders

func (r *MongoRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	now := r.now()
	o.ID = primitive.NewObjectID()
	o.CreatedAt, o.UpdatedAt = now, now
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}

	if _, err := r.orders.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	filter := bson.M{}
	if !f.UserID.IsZero() {
		filter["user"] = f.UserID
	}
	if !f.ProductID.IsZero() {
		filter["products.product"] = f.ProductID
	}
	if !f.Since.IsZero() {
		filter["orderDate"] = bson.M{"$gte": f.Since}
	}

	orders := []model.Order{}
	if err := r.findAll(ctx, r.orders, filter, &orders); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *MongoRepository) UpdateOrder(ctx context.Context, id primitive.ObjectID, patch model.OrderPatch) (*model.Order, error) {
	set := bson.D{{Key: "updatedAt", Value: r.now()}}
	set = appendSet(set, "user", patch.User)
	set = appendSet(set, "orderDate", patch.OrderDate)
	if patch.Products != nil {
		set = append(set, bson.E{Key: "products", Value: patch.Products})
	}

	var o model.Order
	err := r.orders.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.D{{Key: "$set", Value: set}}, returnAfter()).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return &o, nil
}

func (r *MongoRepository) findAll(ctx context.Context, coll *mongo.Collection, filter any, out any) error {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func appendSet[T any](set bson.D, key string, v *T) bson.D {
	if v == nil {
		return set
	}
	return append(set, bson.E{Key: key, Value: *v})
}
