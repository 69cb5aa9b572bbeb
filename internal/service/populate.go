package service

import (
	"context"
	"fmt"

	"fsanano/shop-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// resolver joins orders with the users and products they reference. It does
// one batched lookup per collection, both in flight at the same time.
type resolver struct {
	users    UserRepository
	products ProductRepository
}

func (r resolver) resolve(ctx context.Context, orders []model.Order) ([]model.OrderView, error) {
	var userIDs, productIDs []primitive.ObjectID
	seenUsers := make(map[primitive.ObjectID]bool)
	seenProducts := make(map[primitive.ObjectID]bool)
	for _, o := range orders {
		if !seenUsers[o.User] {
			seenUsers[o.User] = true
			userIDs = append(userIDs, o.User)
		}
		for _, li := range o.Products {
			if !seenProducts[li.Product] {
				seenProducts[li.Product] = true
				productIDs = append(productIDs, li.Product)
			}
		}
	}

	var (
		users    []model.User
		products []model.Product
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		users, err = r.users.FindUsersByIDs(gctx, userIDs)
		if err != nil {
			return fmt.Errorf("failed to resolve users: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		products, err = r.products.FindProductsByIDs(gctx, productIDs)
		if err != nil {
			return fmt.Errorf("failed to resolve products: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	userByID := make(map[primitive.ObjectID]*model.UserRef, len(users))
	for _, u := range users {
		userByID[u.ID] = u.Ref()
	}
	productByID := make(map[primitive.ObjectID]*model.ProductRef, len(products))
	for _, p := range products {
		productByID[p.ID] = p.Ref()
	}

	views := make([]model.OrderView, 0, len(orders))
	for _, o := range orders {
		lines := make([]model.OrderLineView, 0, len(o.Products))
		for _, li := range o.Products {
			lines = append(lines, model.OrderLineView{
				Product:  productByID[li.Product],
				Quantity: li.Quantity,
			})
		}
		views = append(views, model.OrderView{
			ID:        o.ID,
			User:      userByID[o.User],
			Products:  lines,
			OrderDate: o.OrderDate,
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.UpdatedAt,
		})
	}
	return views, nil
}

// buyers returns the distinct users of the given orders in first-seen order.
// Users that no longer exist are skipped.
func (r resolver) buyers(ctx context.Context, orders []model.Order) ([]model.UserRef, error) {
	var ids []primitive.ObjectID
	seen := make(map[primitive.ObjectID]bool)
	for _, o := range orders {
		if !seen[o.User] {
			seen[o.User] = true
			ids = append(ids, o.User)
		}
	}

	users, err := r.users.FindUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	byID := make(map[primitive.ObjectID]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	refs := make([]model.UserRef, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			refs = append(refs, *u.Ref())
		}
	}
	return refs, nil
}
