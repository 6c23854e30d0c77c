package handler

import (
	"errors"
	"go-auth-api/common"
	"go-auth-api/service"
	"net/http"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w, r)
		}
	}
}

// toAppError maps a service error onto its HTTP status. Anything that is not
// an *service.AuthError is an internal failure.
func toAppError(err error) *common.AppError {
	var authErr *service.AuthError
	if !errors.As(err, &authErr) {
		return common.NewInternalError(err)
	}

	status := http.StatusUnauthorized
	switch authErr {
	case service.ErrEmailAlreadyExists:
		status = http.StatusConflict
	case service.ErrPasswordTooLong:
		status = http.StatusBadRequest
	case service.ErrAccountNotFound:
		status = http.StatusNotFound
	}
	return common.NewAppError(status, authErr.Code, authErr.Message, err)
}
