package common

import (
	"encoding/json"
	"go-auth-api/logger"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	problemContentType = "application/problem+json"
	problemTypeBase    = "https://example.com/problems"
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the single error shape handlers return. It renders as an
// RFC 9457 problem document; Err stays server side.
type AppError struct {
	Status  int          `json:"status"`
	Code    string       `json:"code"`
	Message string       `json:"detail"`
	Errors  []FieldError `json:"errors,omitempty"`
	Err     error        `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewInternalError hides err behind a generic 500 body.
func NewInternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", err)
}

// ProblemDetails is the wire body of an AppError.
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Code     string       `json:"code,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	TraceID  string       `json:"trace_id,omitempty"`
}

// Problem builds the wire body for a request path.
func (e *AppError) Problem(instance string) ProblemDetails {
	return ProblemDetails{
		Type:     problemTypeBase + "/" + strings.ToLower(e.Code),
		Title:    titleFromCode(e.Code),
		Status:   e.Status,
		Detail:   e.Message,
		Instance: instance,
		Code:     e.Code,
		Errors:   e.Errors,
		TraceID:  uuid.NewString(),
	}
}

func (e *AppError) Send(w http.ResponseWriter, r *http.Request) {
	instance := ""
	if r != nil {
		instance = r.URL.Path
	}
	problem := e.Problem(instance)

	fields := logrus.Fields{
		"status_code": e.Status,
		"code":        e.Code,
		"trace_id":    problem.TraceID,
		"path":        instance,
	}
	if e.Err != nil {
		fields["internal_error"] = e.Err.Error()
	}
	switch {
	case e.Status >= http.StatusInternalServerError:
		logger.Log.WithFields(fields).Error(e.Message)
	case e.Err != nil:
		logger.Log.WithFields(fields).Warn(e.Message)
	}

	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(problem)
}

// titleFromCode turns TOKEN_EXPIRED into "Token Expired".
func titleFromCode(code string) string {
	words := strings.Split(strings.ToLower(code), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
