package repository

import (
	"context"
	"strings"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OTPRepository stores pending registrations; a TTL index on expires_at purges them
type OTPRepository struct {
	Collection *mongo.Collection
}

func (r *OTPRepository) FindByEmail(ctx context.Context, email string) (*models.OTP, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var otp models.OTP
	if err := r.Collection.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&otp); err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

// Replace supersedes any earlier code for the same email in a single upsert
func (r *OTPRepository) Replace(ctx context.Context, otp *models.OTP) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	otp.Email = strings.ToLower(otp.Email)
	otp.ID = primitive.NilObjectID
	opts := options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.After)
	var stored models.OTP
	if err := r.Collection.FindOneAndReplace(ctx, bson.M{"email": otp.Email}, otp, opts).Decode(&stored); err != nil {
		return translate(err)
	}
	otp.ID = stored.ID
	return nil
}

func (r *OTPRepository) DeleteByEmail(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.Collection.DeleteMany(ctx, bson.M{"email": strings.ToLower(email)})
	return translate(err)
}
