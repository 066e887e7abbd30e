package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rookgm/foodorder/internal/logger"
	"github.com/rookgm/foodorder/internal/models"
	"go.uber.org/zap"
)

// writeError maps service error to response status
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrDataNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, models.ErrRestaurantNotFound):
		http.Error(w, "restaurant not found", http.StatusNotFound)
	case errors.Is(err, models.ErrConflictData):
		http.Error(w, "already exists", http.StatusConflict)
	case errors.Is(err, models.ErrInvalidCredentials):
		http.Error(w, "invalid login or password", http.StatusUnauthorized)
	case errors.Is(err, models.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, models.ErrInvalidDays),
		errors.Is(err, models.ErrInvalidNotification):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrItemNotFound),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrEmptyOrder):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrProviderUnavailable),
		errors.Is(err, models.ErrProviderResponse),
		errors.Is(err, models.ErrUnsupportedProvider):
		logger.Log.Warn("payment provider error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "payment provider error", http.StatusBadGateway)
	default:
		logger.Log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON writes v with status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Debug("write response", zap.Error(err))
	}
}
