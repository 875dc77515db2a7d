package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents an item in the catalog
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name" validate:"required"`
	Description string             `bson:"description" json:"description" validate:"required"`
	Price       float64            `bson:"price" json:"price" validate:"gte=0"`
	Image       string             `bson:"image" json:"image" validate:"required"`
	Category    string             `bson:"category" json:"category" validate:"required"`
	Stock       int                `bson:"stock" json:"stock" validate:"gte=0"`
	Rating      float64            `bson:"rating" json:"rating" validate:"gte=0,lte=5"`
	NumReviews  int                `bson:"num_reviews" json:"numReviews" validate:"gte=0"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ProductFilter narrows a catalog listing
type ProductFilter struct {
	Category string
	Search   string
}

// ProductUpdate carries a partial update; nil fields are left untouched
type ProductUpdate struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description" validate:"omitempty,min=1"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Image       *string  `json:"image" validate:"omitempty,min=1"`
	Category    *string  `json:"category" validate:"omitempty,min=1"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	NumReviews  *int     `json:"numReviews" validate:"omitempty,gte=0"`
}

// Fields returns the $set document for the fields present in the update
func (u ProductUpdate) Fields() bson.M {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Image != nil {
		set["image"] = *u.Image
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Stock != nil {
		set["stock"] = *u.Stock
	}
	if u.Rating != nil {
		set["rating"] = *u.Rating
	}
	if u.NumReviews != nil {
		set["num_reviews"] = *u.NumReviews
	}
	return set
}

// Apply copies the present fields onto p
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Rating != nil {
		p.Rating = *u.Rating
	}
	if u.NumReviews != nil {
		p.NumReviews = *u.NumReviews
	}
}
