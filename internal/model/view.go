package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRef is the projection of a user embedded in order responses.
type UserRef struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// ProductRef is the projection of a product embedded in order responses.
type ProductRef struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Category string             `json:"category"`
	Price    float64            `json:"price"`
}

type OrderLineView struct {
	Product  *ProductRef `json:"product"`
	Quantity int         `json:"quantity"`
}

// OrderView is an order with its references resolved. A reference whose
// document no longer exists is nil.
type OrderView struct {
	ID        primitive.ObjectID `json:"id"`
	User      *UserRef           `json:"user"`
	Products  []OrderLineView    `json:"products"`
	OrderDate time.Time          `json:"orderDate"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (u User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (p Product) Ref() *ProductRef {
	return &ProductRef{ID: p.ID, Name: p.Name, Category: p.Category, Price: p.Price}
}
