package models

import (
	"time"

	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Address struct {
	Label      string `bson:"label,omitempty" json:"label,omitempty" validate:"omitempty,max=50"`
	Street     string `bson:"street" json:"street" validate:"required,max=200"`
	City       string `bson:"city" json:"city" validate:"required,max=100"`
	State      string `bson:"state,omitempty" json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode string `bson:"postalCode" json:"postalCode" validate:"required,max=20"`
	Country    string `bson:"country" json:"country" validate:"required,max=100"`
}

// User is an account. Password is absent for Google-only accounts and the
// refresh token is stored as a hash.
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email              string             `bson:"email" json:"email"`
	Password           string             `bson:"password,omitempty" json:"-"`
	Name               string             `bson:"name" json:"name"`
	Role               auth.Role          `bson:"role" json:"role"`
	Provider           auth.Provider      `bson:"provider" json:"provider"`
	GoogleID           string             `bson:"googleId,omitempty" json:"-"`
	ProfileImage       string             `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	ContactNumbers     []string           `bson:"contactNumbers" json:"contactNumbers"`
	Addresses          []Address          `bson:"addresses" json:"addresses"`
	RefreshToken       string             `bson:"refreshToken,omitempty" json:"-"`
	RefreshTokenExpiry *time.Time         `bson:"refreshTokenExpiry,omitempty" json:"-"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AuthContext is the identity a session for u carries.
func (u *User) AuthContext() auth.Context {
	return auth.Context{
		UserID:   u.ID.Hex(),
		Email:    u.Email,
		Role:     u.Role,
		Provider: u.Provider,
	}
}

// RequiresContactDetails reports whether the account must keep at least one
// contact number and address. Google-only accounts and admins linked to
// Google are exempt.
func (u *User) RequiresContactDetails() bool {
	if u.Provider == auth.ProviderGoogle {
		return false
	}
	return !(u.Role == auth.RoleAdmin && u.Provider.LinkedToGoogle())
}
