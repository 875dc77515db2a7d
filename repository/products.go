package repository

import (
	"context"
	"regexp"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductRepository stores the catalog in the products collection
type ProductRepository struct {
	Collection *mongo.Collection
}

// ProductQuery builds the Mongo filter for a listing.
// Search is matched literally, case-insensitively, against the name.
func ProductQuery(filter models.ProductFilter) bson.M {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
	}
	return query
}

func (r *ProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cursor, err := r.Collection.Find(ctx, ProductQuery(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var product models.Product
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt, product.UpdatedAt = now, now
	_, err := r.Collection.InsertOne(ctx, product)
	return translate(err)
}

// Update sets only the fields present in update and returns the stored result
func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, update models.ProductUpdate) (*models.Product, error) {
	set := update.Fields()
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}
	set["updated_at"] = time.Now().UTC()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var product models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
