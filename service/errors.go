package service

// AuthError is a typed rejection. Each sentinel below is a distinct failure
// path the caller can recover from; compare with errors.Is.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	ErrInvalidCredentials = &AuthError{Code: "INVALID_CREDENTIALS", Message: "Invalid credentials"}
	ErrTokenExpired       = &AuthError{Code: "TOKEN_EXPIRED", Message: "Token expired"}
	ErrTokenMalformed     = &AuthError{Code: "TOKEN_MALFORMED", Message: "Invalid token"}
	ErrTokenInvalid       = &AuthError{Code: "TOKEN_INVALID", Message: "Invalid token"}
	ErrTokenRevoked       = &AuthError{Code: "TOKEN_REVOKED", Message: "Token revoked"}
	ErrReplayDetected     = &AuthError{Code: "REFRESH_REUSE_DETECTED", Message: "Refresh reuse detected. Session revoked."}
	ErrEmailAlreadyExists = &AuthError{Code: "EMAIL_ALREADY_EXISTS", Message: "Email already exists"}
	ErrPasswordTooLong    = &AuthError{Code: "PASSWORD_TOO_LONG", Message: "Password is too long (up to 72 bytes in UTF-8). Please use a shorter password."}
	ErrAccountNotFound    = &AuthError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found"}
)
