package auth

import (
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uint
	Username string
	Role     enums.Role
	BranchID *uint
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uint       `json:"user_id"`
	Username string     `json:"username"`
	Role     enums.Role `json:"role"`
	BranchID *uint      `json:"branch_id,omitempty"`
	jwt.RegisteredClaims
}
