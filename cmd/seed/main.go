package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"fsanano/shop-api/internal/client"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "shop API base URL")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := client.NewClient(client.Config{BaseURL: *baseURL})
	if err := seed(ctx, c, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}

	snap, err := c.Snapshot(ctx)
	if err != nil {
		logger.Error("snapshot failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		logger.Error("failed to print snapshot", "error", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, c *client.Client, logger *slog.Logger) error {
	users := []client.CreateUserRequest{
		{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "555-0100"},
		{Name: "Alan Turing", Email: "alan@example.com", Phone: "555-0101"},
	}
	products := []client.CreateProductRequest{
		{Name: "Mechanical Keyboard", Category: "peripherals", Price: 89.90, StockQuantity: 25},
		{Name: "USB-C Hub", Category: "accessories", Price: 34.50, StockQuantity: 40},
	}

	var userIDs []string
	for _, in := range users {
		u, err := c.CreateUser(ctx, in)
		if err != nil {
			// Reruns hit the unique email index.
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				logger.Warn("user not created", "email", in.Email, "reason", apiErr.Message)
				continue
			}
			return err
		}
		logger.Info("created user", "id", u.ID.Hex(), "email", u.Email)
		userIDs = append(userIDs, u.ID.Hex())
	}

	var productIDs []string
	for _, in := range products {
		p, err := c.CreateProduct(ctx, in)
		if err != nil {
			return err
		}
		logger.Info("created product", "id", p.ID.Hex(), "name", p.Name)
		productIDs = append(productIDs, p.ID.Hex())
	}

	if len(userIDs) == 0 {
		return nil
	}

	order, err := c.PlaceOrder(ctx, client.PlaceOrderRequest{
		User: userIDs[0],
		Products: []client.LineItem{
			{Product: productIDs[0], Quantity: 1},
			{Product: productIDs[1], Quantity: 2},
		},
	})
	if err != nil {
		return err
	}
	logger.Info("placed order", "id", order.ID.Hex())
	return nil
}
