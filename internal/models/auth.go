package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest holds the registration payload. Role defaults to user.
type RegisterRequest struct {
	Name     string   `json:"name" validate:"required,max=50"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Role     UserRole `json:"role" validate:"omitempty,oneof=user instructor admin"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse returns the issued token pair and user info.
type AuthResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
}

// AccessClaims are embedded in access tokens: identity plus role.
type AccessClaims struct {
	UserID string   `json:"id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims are embedded in refresh tokens: identity only.
type RefreshClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}
