package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is a member of the service. TokenVersion only ever grows; bumping it
// invalidates every access and refresh token issued before the bump.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	TokenVersion int64     `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAccount builds an unsaved account with the defaults a signup gets.
func NewAccount(email, passwordHash string) *Account {
	return &Account{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		TokenVersion: 0,
	}
}
