package handler

import (
	"encoding/json"
	"go-auth-api/logger"
	"go-auth-api/model"
	"net/http"
)

// writeData wraps data in the success envelope.
func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(model.SuccessResponse{Data: data}); err != nil {
		logger.Log.WithError(err).Error("Failed to encode response body")
	}
}
