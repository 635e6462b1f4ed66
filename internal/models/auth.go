package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the token payload issued by the auth collaborator.
type JWTClaims struct {
	UserID   int64    `json:"userId"`
	Role     UserRole `json:"type"`
	Username string   `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// IsOperator reports whether the claims belong to a back-office operator.
func (c *JWTClaims) IsOperator() bool {
	return c != nil && c.Role == RoleOperator
}
