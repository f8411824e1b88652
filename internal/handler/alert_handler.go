package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/model"
)

// AlertServiceInterface for handler testing
type AlertServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.AlertView, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	Dismiss(ctx context.Context, id, userID uuid.UUID) error
}

type AlertHandler struct {
	alerts AlertServiceInterface
}

func NewAlertHandler(alerts AlertServiceInterface) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// UnreadCountResponse is the bell badge count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// List godoc
// @Summary List price drop alerts
// @Description Refreshes alerts, returns them as they were before the call, then marks them seen
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.AlertView
// @Router /alerts [get]
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.List(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []model.AlertView{}
	}
	respondJSON(w, http.StatusOK, alerts)
}

// UnreadCount godoc
// @Summary Count unseen alerts
// @Description Refreshes alerts and counts the unseen ones without marking them
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UnreadCountResponse
// @Router /alerts/unread-count [get]
func (h *AlertHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.alerts.UnreadCount(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, UnreadCountResponse{Count: n})
}

// Dismiss godoc
// @Summary Dismiss an alert
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /alerts/{id} [delete]
func (h *AlertHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id, appErr := uuidParam(r, "id")
	if appErr != nil {
		respondAppError(w, appErr)
		return
	}
	if err := h.alerts.Dismiss(r.Context(), id, GetUserID(r.Context())); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
