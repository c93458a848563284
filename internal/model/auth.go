package model

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents JWT claims issued by the external auth service
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
