package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRole string

const (
	UserRolePassenger UserRole = "passenger"
	UserRoleDriver    UserRole = "driver"
)

type User struct {
	ID           primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UID          string             `json:"uid" bson:"uid"`
	FullName     string             `json:"full_name" bson:"full_name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password_hash,omitempty"`
	Role         UserRole           `json:"role" bson:"role"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// Session identifies the signed-in caller of a service operation. A nil
// *Session means nobody is signed in.
type Session struct {
	UID     string   `json:"uid"`
	Email   string   `json:"email"`
	Role    UserRole `json:"role"`
	TokenID string   `json:"-"`

	// ExpiresAt is zero when the provider manages token lifetime.
	ExpiresAt time.Time `json:"-"`
}
