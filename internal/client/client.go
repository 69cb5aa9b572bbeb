package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fsanano/shop-api/internal/model"

	"github.com/andybalholm/brotli"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	client  *http.Client
	baseURL string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		client: &http.Client{
			Transport: &Transport{Base: http.DefaultTransport},
			Timeout:   timeout,
		},
		baseURL: cfg.BaseURL,
	}
}

// Transport asks for brotli-compressed JSON.
type Transport struct {
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br")
	return t.Base.RoundTrip(req)
}

func (c *Client) CreateUser(ctx context.Context, in CreateUserRequest) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodPost, "/users", in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := c.do(ctx, http.MethodGet, "/users", nil, &users)
	return users, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodPut, "/users/"+id, patch, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreateProduct(ctx context.Context, in CreateProductRequest) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodPost, "/products", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := c.do(ctx, http.MethodGet, "/products", nil, &products)
	return products, err
}

func (c *Client) UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodPut, "/products/"+id, patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) TotalStock(ctx context.Context) (int64, error) {
	var resp struct {
		TotalStock int64 `json:"totalStock"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/total-stock", nil, &resp); err != nil {
		return 0, err
	}
	return resp.TotalStock, nil
}

func (c *Client) PlaceOrder(ctx context.Context, in PlaceOrderRequest) (*model.Order, error) {
	var o model.Order
	if err := c.do(ctx, http.MethodPost, "/orders", in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]model.OrderView, error) {
	var orders []model.OrderView
	err := c.do(ctx, http.MethodGet, "/orders", nil, &orders)
	return orders, err
}

func (c *Client) UpdateOrder(ctx context.Context, id string, in UpdateOrderRequest) (*model.OrderView, error) {
	var o model.OrderView
	if err := c.do(ctx, http.MethodPut, "/orders/"+id, in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// The query methods below return no results, not an error, when the server
// answers with a "message" body.

func (c *Client) RecentOrders(ctx context.Context) ([]model.OrderView, error) {
	var orders []model.OrderView
	err := c.do(ctx, http.MethodGet, "/orders/last-7-days", nil, &orders)
	return orders, emptyIsNil(err)
}

func (c *Client) OrdersByUser(ctx context.Context, userID string) ([]model.OrderView, error) {
	var orders []model.OrderView
	err := c.do(ctx, http.MethodGet, "/orders/user/"+userID, nil, &orders)
	return orders, emptyIsNil(err)
}

func (c *Client) BuyersOf(ctx context.Context, productID string) ([]model.UserRef, error) {
	var users []model.UserRef
	err := c.do(ctx, http.MethodGet, "/orders/users/bought/"+productID, nil, &users)
	return users, emptyIsNil(err)
}

// Snapshot fetches users, products and orders concurrently.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	g, ctx := errgroup.WithContext(ctx)
	var s Snapshot

	g.Go(func() error {
		var err error
		s.Users, err = c.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch users: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		s.Products, err = c.ListProducts(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch products: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		s.Orders, err = c.ListOrders(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch orders: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}

	if resp.Header.Get("Content-Encoding") == "br" {
		resp.Body = &readCloserWrapper{Reader: brotli.NewReader(resp.Body), Closer: resp.Body}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(raw)}
		var eb errorBody
		if err := json.Unmarshal(raw, &eb); err == nil {
			if eb.Error != "" {
				apiErr.Message = eb.Error
			} else if eb.Message != "" {
				apiErr.Message = eb.Message
				apiErr.NoResults = true
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func emptyIsNil(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.NoResults {
		return nil
	}
	return err
}

type readCloserWrapper struct {
	io.Reader
	io.Closer
}

func (r *readCloserWrapper) Read(p []byte) (n int, err error) {
	return r.Reader.Read(p)
}

func (r *readCloserWrapper) Close() error {
	return r.Closer.Close()
}
