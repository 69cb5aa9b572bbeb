package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fsanano/shop-api/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostgresRepository stores the same documents in PostgreSQL. Ids keep the
// ObjectID hex form so the HTTP surface is identical across backends, and
// order line items live in a JSONB column.
type PostgresRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *PostgresRepository) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id CHAR(24) PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id CHAR(24) PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			stock_quantity INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id CHAR(24) PRIMARY KEY,
			user_id CHAR(24) NOT NULL,
			products JSONB NOT NULL,
			order_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_products ON orders USING GIN (products jsonb_path_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders(order_date DESC)`,
	}

	for _, m := range migrations {
		if _, err := r.db.Exec(ctx, m); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Users

const userColumns = "id, name, email, phone, created_at, updated_at"

func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	now := r.now()
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.db.Exec(ctx,
		"INSERT INTO users ("+userColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
		u.ID.Hex(), u.Name, u.Email, u.Phone, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return collectUsers(rows)
}

func (r *PostgresRepository) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	rows, err := r.db.Query(ctx, "SELECT "+userColumns+" FROM users WHERE id = ANY($1) ORDER BY id", hexIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return collectUsers(rows)
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, id primitive.ObjectID, patch model.UserPatch) (*model.User, error) {
	row := r.db.QueryRow(ctx, `UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			updated_at = $5
		WHERE id = $1
		RETURNING `+userColumns,
		id.Hex(), patch.Name, patch.Email, patch.Phone, r.now())

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// Products

const productColumns = "id, name, category, price, stock_quantity, created_at, updated_at"

func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	now := r.now()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.db.Exec(ctx,
		"INSERT INTO products ("+productColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		p.ID.Hex(), p.Name, p.Category, p.Price, p.StockQuantity, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return collectProducts(rows)
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id.Hex()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	rows, err := r.db.Query(ctx, "SELECT "+productColumns+" FROM products WHERE id = ANY($1) ORDER BY id", hexIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return collectProducts(rows)
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch model.ProductPatch) (*model.Product, error) {
	row := r.db.QueryRow(ctx, `UPDATE products SET
			name = COALESCE($2, name),
			category = COALESCE($3, category),
			price = COALESCE($4, price),
			stock_quantity = COALESCE($5, stock_quantity),
			updated_at = $6
		WHERE id = $1
		RETURNING `+productColumns,
		id.Hex(), patch.Name, patch.Category, patch.Price, patch.StockQuantity, r.now())

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// DecrementStock updates the stock of a product only if enough is left.
func (r *PostgresRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (*model.Product, error) {
	row := r.db.QueryRow(ctx, `UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = $3
		WHERE id = $1 AND stock_quantity >= $2
		RETURNING `+productColumns,
		id.Hex(), quantity, r.now())

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("failed to update product stock: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) TotalStock(ctx context.Context) (total int64, count int64, err error) {
	err = r.db.QueryRow(ctx, "SELECT COALESCE(SUM(stock_quantity), 0), COUNT(*) FROM products").Scan(&total, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum stock: %w", err)
	}
	return total, count, nil
}

// Orders

const orderColumns = "id, user_id, products, order_date, created_at, updated_at"

func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	now := r.now()
	o.ID = primitive.NewObjectID()
	o.CreatedAt, o.UpdatedAt = now, now
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}

	items, err := json.Marshal(o.Products)
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	_, err = r.db.Exec(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES ($1, $2, $3::jsonb, $4, $5, $6)",
		o.ID.Hex(), o.User.Hex(), string(items), o.OrderDate, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE TRUE"
	var args []any

	if !f.UserID.IsZero() {
		args = append(args, f.UserID.Hex())
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if !f.ProductID.IsZero() {
		contains, err := json.Marshal([]map[string]string{{"product": f.ProductID.Hex()}})
		if err != nil {
			return nil, fmt.Errorf("failed to encode product filter: %w", err)
		}
		args = append(args, string(contains))
		query += fmt.Sprintf(" AND products @> $%d::jsonb", len(args))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		query += fmt.Sprintf(" AND order_date >= $%d", len(args))
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *PostgresRepository) UpdateOrder(ctx context.Context, id primitive.ObjectID, patch model.OrderPatch) (*model.Order, error) {
	var user, items any
	if patch.User != nil {
		user = patch.User.Hex()
	}
	if patch.Products != nil {
		b, err := json.Marshal(patch.Products)
		if err != nil {
			return nil, fmt.Errorf("failed to encode line items: %w", err)
		}
		items = string(b)
	}

	row := r.db.QueryRow(ctx, `UPDATE orders SET
			user_id = COALESCE($2::char(24), user_id),
			products = COALESCE($3::jsonb, products),
			order_date = COALESCE($4, order_date),
			updated_at = $5
		WHERE id = $1
		RETURNING `+orderColumns,
		id.Hex(), user, items, patch.OrderDate, r.now())

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return o, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u  model.User
		id string
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.Phone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", id, err)
	}
	u.ID = oid
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]model.User, error) {
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p  model.Product
		id string
	)
	if err := row.Scan(&id, &p.Name, &p.Category, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt product id %q: %w", id, err)
	}
	p.ID = oid
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o            model.Order
		id, userID   string
		productsJSON []byte
	)
	if err := row.Scan(&id, &userID, &productsJSON, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if o.ID, err = primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("corrupt order id %q: %w", id, err)
	}
	if o.User, err = primitive.ObjectIDFromHex(userID); err != nil {
		return nil, fmt.Errorf("corrupt user reference %q: %w", userID, err)
	}
	if err := json.Unmarshal(productsJSON, &o.Products); err != nil {
		return nil, fmt.Errorf("corrupt line items: %w", err)
	}
	return &o, nil
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
