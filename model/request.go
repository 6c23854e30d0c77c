// file: model/request.go

package model

// SignupRequest defines the payload for creating a new account.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"user1@example.com"`
	Password string `json:"password" validate:"required,min=8" example:"Passw0rd!"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user1@example.com"`
	Password string `json:"password" validate:"required" example:"Passw0rd!"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest carries the refresh token of the session being closed.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
