package auth

import (
	"github.com/bikebuddy/bikebuddy-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login page. Identifier is
// a username or an email address.
type LoginRequest struct {
	Identifier string `json:"identifier" schema:"identifier" validate:"required,max=255"`
	Password   string `json:"password" schema:"password" validate:"required"`
}

// SignupRequest registers a new customer account.
type SignupRequest struct {
	Username        string `json:"username" schema:"username" validate:"required,min=3,max=50,alphanumunicode"`
	Email           string `json:"email" schema:"email" validate:"required,email,max=255"`
	Password        string `json:"password" schema:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" schema:"confirm_password" validate:"required"`
	BranchID        *uint  `json:"branch_id" schema:"branch_id"`
}

// RefreshRequest carries the (possibly expired) access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" schema:"access_token"`
	RefreshToken string `json:"refresh_token" schema:"refresh_token" validate:"required"`
}

// LoginResponse contains the tokens and user produced by a successful login or signup.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	AccessID     string         `json:"-"`
	User         *users.UserDTO `json:"user"`
	Redirect     string         `json:"redirect"`
}
