package auth

import (
	"time"

	"github.com/angelmondragon/stockroom-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	UserName   string `json:"user_name" validate:"required,max=50"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// LoginResponse carries the access token and the authenticated user.
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
	User        users.UserDTO `json:"user"`
}
