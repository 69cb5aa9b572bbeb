package service

import (
	"context"
	"errors"

	"fsanano/shop-api/internal/model"
	"fsanano/shop-api/internal/repository"
	"fsanano/shop-api/internal/validator"
)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

type CreateUserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if !validator.Required(in.Name, in.Email, in.Phone) {
		return nil, invalid("name, email and phone are required")
	}

	u := &model.User{Name: in.Name, Email: in.Email, Phone: in.Phone}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, invalid("A user with this email already exists")
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

// Update merges the supplied fields into the user. Orders only reference the
// user by id, so nothing else is rewritten.
func (s *UserService) Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	oid, ok := validator.ParseID(id)
	if !ok {
		return nil, invalid("Invalid user ID")
	}
	for _, v := range []*string{patch.Name, patch.Email, patch.Phone} {
		if v != nil && !validator.Required(*v) {
			return nil, invalid("name, email and phone cannot be empty")
		}
	}

	u, err := s.repo.UpdateUser(ctx, oid, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("User not found")
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, invalid("A user with this email already exists")
		}
		return nil, err
	}
	return u, nil
}
