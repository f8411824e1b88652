package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/apperror"
	"github.com/pricewatch/backend/internal/logger"
	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/repository"
	"github.com/pricewatch/backend/internal/service"
)

// ErrorResponse represents a JSON error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// MessageResponse is a body carrying only a human readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondAppError writes a JSON error response from an AppError.
// It extracts the status code and message from the error.
func respondAppError(w http.ResponseWriter, err *apperror.AppError) {
	resp := ErrorResponse{
		Error: err.Message,
		Field: err.Field,
	}
	respondJSON(w, err.StatusCode, resp)
}

// respondServiceError maps domain errors to HTTP responses. Anything it does
// not recognise is logged and reported as a 500 without details.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, repository.ErrProductNotFound):
		appErr = apperror.NotFound("product")
	case errors.Is(err, repository.ErrPlatformNotFound):
		appErr = apperror.NotFound("platform")
	case errors.Is(err, repository.ErrTrackedNotFound):
		appErr = apperror.NotFound("tracked item")
	case errors.Is(err, repository.ErrAlertNotFound):
		appErr = apperror.NotFound("alert")
	case errors.Is(err, repository.ErrUserNotFound):
		appErr = apperror.NotFound("user")
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, repository.ErrEmailExists):
		appErr = apperror.Conflict("email already in use")
	case errors.Is(err, service.ErrInvalidCredentials):
		appErr = apperror.Unauthorized("invalid email or password")
	case errors.Is(err, service.ErrCannotDeleteAdmin):
		appErr = apperror.BadRequest("cannot delete admin user")
	case errors.Is(err, model.ErrDuplicatePlatform):
		appErr = apperror.ValidationError("platforms", "platform names must be unique")
	case errors.Is(err, service.ErrInvalidPrice):
		appErr = apperror.ValidationError("price", service.ErrInvalidPrice.Error())
	default:
		appErr = apperror.Internal(err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	respondAppError(w, appErr)
}

// decodeJSON reads the request body into dst and validates it.
func decodeJSON(r *http.Request, dst any) *apperror.AppError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	return validateStruct(dst)
}

// uuidParam parses a chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, *apperror.AppError) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperror.ValidationError(name, "invalid "+name)
	}
	return id, nil
}
