package service

import (
	"context"
	"errors"

	"fsanano/shop-api/internal/model"
	"fsanano/shop-api/internal/repository"
	"fsanano/shop-api/internal/validator"
)

type ProductService struct {
	repo ProductRepository
}

func NewProductService(repo ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

type CreateProductInput struct {
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Price         *float64 `json:"price"`
	StockQuantity *int     `json:"stockQuantity"`
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	if !validator.Required(in.Name, in.Category) || in.Price == nil || in.StockQuantity == nil {
		return nil, invalid("name, category, price and stockQuantity are required")
	}
	if err := checkProductFields(in.Price, in.StockQuantity); err != nil {
		return nil, err
	}

	p := &model.Product{
		Name:          in.Name,
		Category:      in.Category,
		Price:         *in.Price,
		StockQuantity: *in.StockQuantity,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *ProductService) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	oid, ok := validator.ParseID(id)
	if !ok {
		return nil, invalid("Invalid product ID")
	}
	for _, v := range []*string{patch.Name, patch.Category} {
		if v != nil && !validator.Required(*v) {
			return nil, invalid("name and category cannot be empty")
		}
	}
	if err := checkProductFields(patch.Price, patch.StockQuantity); err != nil {
		return nil, err
	}

	p, err := s.repo.UpdateProduct(ctx, oid, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Product not found")
		}
		return nil, err
	}
	return p, nil
}

// TotalStock sums stockQuantity over all products.
func (s *ProductService) TotalStock(ctx context.Context) (int64, error) {
	total, count, err := s.repo.TotalStock(ctx)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, noResults("No products found")
	}
	return total, nil
}

func checkProductFields(price *float64, stock *int) error {
	if price != nil && *price < 0 {
		return invalid("price cannot be negative")
	}
	if !validator.NonNegative(stock) {
		return invalid("stockQuantity cannot be negative")
	}
	return nil
}
