// Package repository persists storefront documents in MongoDB.
package repository

import (
	"context"
	"errors"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("repository: not found")
	ErrDuplicate = errors.New("repository: duplicate key")
)

// UserStore persists user accounts
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetAdmin(ctx context.Context, id primitive.ObjectID, isAdmin bool) error
	List(ctx context.Context) ([]models.User, error)
}

// OTPStore persists pending registrations
type OTPStore interface {
	FindByEmail(ctx context.Context, email string) (*models.OTP, error)
	// Replace removes any record for the email and stores otp in its place
	Replace(ctx context.Context, otp *models.OTP) error
	DeleteByEmail(ctx context.Context, email string) error
}

// ProductStore persists the catalog
type ProductStore interface {
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, update models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// OrderStore persists checkouts
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	// MarkPaid records the payment unless the order is already paid. changed is true only
	// for the call that flipped is_paid.
	MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID, signature string, paidAt time.Time) (order *models.Order, changed bool, err error)
	MarkDelivered(ctx context.Context, id primitive.ObjectID, deliveredAt time.Time) (order *models.Order, changed bool, err error)
}
