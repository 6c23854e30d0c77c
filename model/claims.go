package model

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// AppClaims is the payload of both token kinds. Subject carries the account id
// as a decimal string and ID (jti) carries the rotation id on refresh tokens.
// Version is a pointer so a missing "ver" claim can be told apart from zero.
type AppClaims struct {
	Type    TokenType `json:"type"`
	Role    Role      `json:"role"`
	Version *int64    `json:"ver,omitempty"`
	jwt.RegisteredClaims
}
