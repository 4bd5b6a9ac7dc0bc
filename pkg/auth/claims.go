package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   int64
	UserName string
	JTI      string
	// RememberMe extends the token lifetime to the configured remember-me window.
	RememberMe bool
}

// AccessTokenClaims is the typed JWT issued to clients. The subject is the user name.
type AccessTokenClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}
