package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/service"
)

// TrackedServiceInterface for handler testing
type TrackedServiceInterface interface {
	Track(ctx context.Context, userID uuid.UUID, input service.TrackInput) (*model.TrackedItem, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.TrackedProduct, error)
	Remove(ctx context.Context, id, userID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
}

type TrackedHandler struct {
	tracked TrackedServiceInterface
}

func NewTrackedHandler(tracked TrackedServiceInterface) *TrackedHandler {
	return &TrackedHandler{tracked: tracked}
}

// ClearResponse reports how many tracked items were removed.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}

// List godoc
// @Summary List tracked products
// @Description Most recently viewed first
// @Tags tracked
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.TrackedProduct
// @Router /tracked [get]
func (h *TrackedHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.tracked.List(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// Track godoc
// @Summary Track a product
// @Description Re-tracking a product moves its viewedAt forward
// @Tags tracked
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.TrackInput true "Product to track"
// @Success 200 {object} model.TrackedItem
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tracked [post]
func (h *TrackedHandler) Track(w http.ResponseWriter, r *http.Request) {
	var input service.TrackInput
	if appErr := decodeJSON(r, &input); appErr != nil {
		respondAppError(w, appErr)
		return
	}
	item, err := h.tracked.Track(r.Context(), GetUserID(r.Context()), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Remove godoc
// @Summary Stop tracking one product
// @Tags tracked
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tracked item ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /tracked/{id} [delete]
func (h *TrackedHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, appErr := uuidParam(r, "id")
	if appErr != nil {
		respondAppError(w, appErr)
		return
	}
	if err := h.tracked.Remove(r.Context(), id, GetUserID(r.Context())); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear godoc
// @Summary Stop tracking every product
// @Tags tracked
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ClearResponse
// @Router /tracked [delete]
func (h *TrackedHandler) Clear(w http.ResponseWriter, r *http.Request) {
	n, err := h.tracked.Clear(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ClearResponse{Removed: n})
}
