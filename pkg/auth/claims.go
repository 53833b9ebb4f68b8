package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenPayload captures the data available when minting a JWT.
type TokenPayload struct {
	UID         string
	Email       string
	DisplayName string
	Admin       bool
}

// TokenClaims is the typed JWT accepted by the jwt auth provider. The subject
// carries the user id.
type TokenClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}
