package repository

import (
	"context"
	"errors"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderRepository stores checkouts in the orders collection
type OrderRepository struct {
	Collection *mongo.Collection
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	order.ID = primitive.NewObjectID()
	order.CreatedAt, order.UpdatedAt = now, now
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentMethodRazorpay
	}
	_, err := r.Collection.InsertOne(ctx, order)
	return translate(err)
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var order models.Order
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.list(ctx, bson.M{"user": userID})
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, bson.M{})
}

func (r *OrderRepository) list(ctx context.Context, filter bson.M) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cursor, err := r.Collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkPaid only matches unpaid orders, so a replayed verification leaves the first payment intact.
// The bool reports whether this call made the transition.
func (r *OrderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID, signature string, paidAt time.Time) (*models.Order, bool, error) {
	update := bson.M{"$set": bson.M{
		"razorpay_payment_id": paymentID,
		"razorpay_signature":  signature,
		"is_paid":             true,
		"paid_at":             paidAt,
		"updated_at":          time.Now().UTC(),
	}}
	return r.transition(ctx, bson.M{"_id": id, "is_paid": false}, id, update)
}

func (r *OrderRepository) MarkDelivered(ctx context.Context, id primitive.ObjectID, deliveredAt time.Time) (*models.Order, bool, error) {
	update := bson.M{"$set": bson.M{
		"is_delivered": true,
		"delivered_at": deliveredAt,
		"updated_at":   time.Now().UTC(),
	}}
	return r.transition(ctx, bson.M{"_id": id, "is_delivered": false}, id, update)
}

// transition applies update when filter matches; otherwise the current document is returned with false
func (r *OrderRepository) transition(ctx context.Context, filter bson.M, id primitive.ObjectID, update bson.M) (*models.Order, bool, error) {
	qctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var order models.Order
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.Collection.FindOneAndUpdate(qctx, filter, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, err := r.FindByID(ctx, id)
		return current, false, err
	}
	if err != nil {
		return nil, false, translate(err)
	}
	return &order, true, nil
}
