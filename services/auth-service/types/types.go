package types

import "github.com/yashrajoria/laptop-admin/backend/services/auth-service/models"

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest creates a credentials account, or links a password to an
// existing Google account with the same email.
type RegisterRequest struct {
	Email          string           `json:"email" validate:"required,email,max=254"`
	Password       string           `json:"password" validate:"required,min=8,max=72"`
	Name           string           `json:"name" validate:"required,min=2,max=100"`
	ContactNumbers []string         `json:"contactNumbers" validate:"omitempty,max=5,dive,required,min=7,max=20"`
	Addresses      []models.Address `json:"addresses" validate:"omitempty,max=5,dive"`
}

// AccountUpdateRequest replaces the mutable profile fields.
type AccountUpdateRequest struct {
	Name           string           `json:"name" validate:"required,min=2,max=100"`
	ContactNumbers []string         `json:"contactNumbers" validate:"omitempty,max=5,dive,required,min=7,max=20"`
	Addresses      []models.Address `json:"addresses" validate:"omitempty,max=5,dive"`
}
