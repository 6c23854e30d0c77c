package handler

import (
	"context"
	"go-auth-api/common"
	"go-auth-api/model"
	"net/http"
)

// SessionService is the part of service.AuthService the auth endpoints use.
type SessionService interface {
	Signup(ctx context.Context, email, password string) (*model.Account, error)
	Login(ctx context.Context, email, password string) (*model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

type AuthHandler struct {
	service SessionService
}

func NewAuthHandler(service SessionService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Signup godoc
// @Summary      Create an account
// @Description  Registers a new account with role user.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        account body model.SignupRequest true "Email and password"
// @Success      201  {object}  model.SuccessResponse{data=model.SignupResponse}
// @Failure      400  {object}  common.ProblemDetails "Password longer than 72 bytes"
// @Failure      409  {object}  common.ProblemDetails "Email already exists"
// @Failure      422  {object}  common.ProblemDetails "Validation failed"
// @Router       /api/v1/auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.SignupRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	account, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		return toAppError(err)
	}

	writeData(w, http.StatusCreated, model.SignupResponse{ID: account.ID, Email: account.Email})
	return nil
}

// Login godoc
// @Summary      Log in
// @Description  Exchanges credentials for an access and refresh token pair.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials body model.LoginRequest true "Email and password"
// @Success      200  {object}  model.SuccessResponse{data=model.TokenPair}
// @Failure      401  {object}  common.ProblemDetails "Invalid credentials"
// @Failure      422  {object}  common.ProblemDetails "Validation failed"
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return toAppError(err)
	}

	writeData(w, http.StatusOK, pair)
	return nil
}

// Refresh godoc
// @Summary      Rotate a refresh token
// @Description  Retires the presented refresh token and issues a new pair. Reusing a retired token revokes every session of the account.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token body model.RefreshRequest true "Refresh token"
// @Success      200  {object}  model.SuccessResponse{data=model.TokenPair}
// @Failure      401  {object}  common.ProblemDetails "Expired, malformed, invalid, revoked or reused token"
// @Router       /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		return toAppError(err)
	}

	writeData(w, http.StatusOK, pair)
	return nil
}

// Logout godoc
// @Summary      Log out
// @Description  Retires the refresh token and revokes the account's outstanding tokens. Repeating it succeeds.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token body model.LogoutRequest true "Refresh token"
// @Success      200  {object}  model.SuccessResponse{data=model.OKResponse}
// @Failure      401  {object}  common.ProblemDetails "Expired or malformed token"
// @Router       /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LogoutRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		return toAppError(err)
	}

	writeData(w, http.StatusOK, model.OKResponse{OK: true})
	return nil
}
