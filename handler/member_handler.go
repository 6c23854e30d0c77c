package handler

import (
	"context"
	"go-auth-api/common"
	"go-auth-api/logger"
	"go-auth-api/model"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
)

// SessionRevoker bumps an account's credential version.
type SessionRevoker interface {
	RevokeAllSessions(ctx context.Context, accountID int64) error
}

// MemberHandler serves the members endpoints. All but Ping run behind AuthMiddleware.
type MemberHandler struct {
	revoker SessionRevoker
}

func NewMemberHandler(revoker SessionRevoker) *MemberHandler {
	return &MemberHandler{revoker: revoker}
}

// Ping godoc
// @Summary      Members ping
// @Tags         members
// @Produce      json
// @Success      200  {object}  model.SuccessResponse{data=model.PingResponse}
// @Router       /api/v1/members/ping [get]
func (h *MemberHandler) Ping(w http.ResponseWriter, r *http.Request) *common.AppError {
	writeData(w, http.StatusOK, model.PingResponse{OK: true, Domain: "members"})
	return nil
}

// Me godoc
// @Summary      Current account
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.SuccessResponse{data=model.MeResponse}
// @Failure      401  {object}  common.ProblemDetails
// @Router       /api/v1/members/me [get]
func (h *MemberHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated", nil)
	}
	writeData(w, http.StatusOK, model.MeResponse{ID: account.ID, Email: account.Email, Role: account.Role})
	return nil
}

// AdminOnly godoc
// @Summary      Admin check
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.SuccessResponse{data=model.AdminOnlyResponse}
// @Failure      401  {object}  common.ProblemDetails
// @Failure      403  {object}  common.ProblemDetails
// @Router       /api/v1/members/admin-only [get]
func (h *MemberHandler) AdminOnly(w http.ResponseWriter, r *http.Request) *common.AppError {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated", nil)
	}
	writeData(w, http.StatusOK, model.AdminOnlyResponse{OK: true, Admin: account.Email})
	return nil
}

// RevokeSessions godoc
// @Summary      Revoke every session of an account
// @Description  Invalidates all access and refresh tokens issued to the account so far.
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "Account ID"
// @Success      200  {object}  model.SuccessResponse{data=model.OKResponse}
// @Failure      400  {object}  common.ProblemDetails "Invalid account ID in URL path"
// @Failure      403  {object}  common.ProblemDetails
// @Failure      404  {object}  common.ProblemDetails "Account not found"
// @Router       /api/v1/members/{id}/sessions/revoke [post]
func (h *MemberHandler) RevokeSessions(w http.ResponseWriter, r *http.Request) *common.AppError {
	accountID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || accountID <= 0 {
		return common.NewAppError(http.StatusBadRequest, "BAD_REQUEST", "Invalid account ID in URL path", err)
	}

	admin, _ := AccountFromContext(r.Context())
	log := logger.Log.WithField("target_account_id", accountID)
	if admin != nil {
		log = log.WithField("admin_id", admin.ID)
	}
	log.WithFields(logrus.Fields{"action": "revoke_sessions"}).Info("Revoke sessions request received")

	if err := h.revoker.RevokeAllSessions(r.Context(), accountID); err != nil {
		return toAppError(err)
	}

	writeData(w, http.StatusOK, model.OKResponse{OK: true})
	return nil
}
