package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTPTTL is how long a pending registration stays valid
const OTPTTL = 15 * time.Minute

// OTP stages a registration until the emailed code is confirmed.
// Password holds the bcrypt hash of the pending password.
type OTP struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email     string             `bson:"email" json:"email"`
	Code      string             `bson:"otp" json:"-"`
	Name      string             `bson:"name" json:"name"`
	Password  string             `bson:"password" json:"-"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expiresAt"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// Expired reports whether the code is past its expiry at now.
// The TTL index removes documents lazily, so callers check this too.
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
