package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sign-in providers
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User represents a registered customer or administrator
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"`
	IsAdmin   bool               `bson:"is_admin" json:"isAdmin"`
	Provider  string             `bson:"provider" json:"provider,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// HasLocalPassword reports whether the user can sign in with a password
func (u *User) HasLocalPassword() bool {
	return u.Password != "" && u.Provider != ProviderGoogle
}

// Profile is the public view of a user returned by /profile
type Profile struct {
	ID      primitive.ObjectID `json:"_id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	IsAdmin bool               `json:"isAdmin"`
}

// Profile returns the public view of the user
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin}
}
