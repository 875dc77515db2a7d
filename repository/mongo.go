package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-storefront/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	UsersCollection    = "users"
	OTPsCollection     = "otps"
	ProductsCollection = "products"
	OrdersCollection   = "orders"
)

// queryTimeout bounds every single database round trip
const queryTimeout = 5 * time.Second

// Mongo owns the client and the storefront database
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect dials MongoDB and verifies the connection
func Connect(ctx context.Context, cfg config.MongoConfig) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{Client: client, Database: client.Database(cfg.Database)}, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and TTL indexes the stores rely on
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		OTPsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		ProductsCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := m.Database.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (m *Mongo) Users() *UserRepository {
	return &UserRepository{Collection: m.Database.Collection(UsersCollection)}
}

func (m *Mongo) OTPs() *OTPRepository {
	return &OTPRepository{Collection: m.Database.Collection(OTPsCollection)}
}

func (m *Mongo) Products() *ProductRepository {
	return &ProductRepository{Collection: m.Database.Collection(ProductsCollection)}
}

func (m *Mongo) Orders() *OrderRepository {
	return &OrderRepository{Collection: m.Database.Collection(OrdersCollection)}
}

// translate maps driver errors onto the package sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
