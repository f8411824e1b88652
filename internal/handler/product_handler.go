package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/pricing"
	"github.com/pricewatch/backend/internal/service"
)

// ProductServiceInterface for handler testing
type ProductServiceInterface interface {
	List(ctx context.Context, search string) ([]model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, input service.CreateProductInput) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddPrice(ctx context.Context, id uuid.UUID, input service.AddPriceInput) (*model.Product, error)
	Summary(ctx context.Context, id uuid.UUID) (*pricing.Summary, error)
	Forecast(ctx context.Context, id uuid.UUID) (*service.ForecastResponse, error)
}

type ProductHandler struct {
	products ProductServiceInterface
}

func NewProductHandler(products ProductServiceInterface) *ProductHandler {
	return &ProductHandler{products: products}
}

// List godoc
// @Summary List products
// @Description Case-insensitive title search when search is set
// @Tags products
// @Produce json
// @Param search query string false "Title search"
// @Success 200 {array} model.Product
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// Get godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} model.Product
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := uuidParam(r, "id")
	if appErr != nil {
		respondAppError(w, appErr)
		return
	}
	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Summary godoc
// @Summary Price summary of a product
// @Description Per-platform statistics, recommendation and best deal
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} pricing.Summary
// @Failure 404 {object} ErrorResponse
// @Router /products/{id}/summary [get]
func (h *ProductHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, appErr := uuidParam(r, "id")
	if appErr != nil {
		respondAppError(w, appErr)
		return
	}
	summary, err := h.products.Summary(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Forecast godoc
// @Summary Next minimum price forecast
// @Description Missing history or model failure is reported in status, not as an error
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} service.ForecastResponse
// @Failure 404 {object} ErrorResponse
// @Router /products/{id}/forecast [get]
func (h *ProductHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	id, appErr := uuidParam(r, "id")
	if appErr != nil {
		respondAppError(w, appErr)
		return
	}
	forecast, err := h.products.Forecast(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, forecast)
}

// AddPrice godoc
// @Summary Record a platform price
// @Description Sets the platform's current price and appends it to history
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body service.AddPriceInput true "Platform and price"
// @Success 201 {object} model.Product
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Product or platform not found"
// @Router /products/{id}/history [post]
func (h *ProductHandler) AddPrice(w http.ResponseWriter, r *http.Request) {
	id, appErr := uuidParam(r, "id")
	if appErr != nil {
		respondAppError(w, appErr)
		return
	}
	var input service.AddPriceInput
	if appErr := decodeJSON(r, &input); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	product, err := h.products.AddPrice(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// Create godoc
// @Summary Create a product (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.CreateProductInput true "Product"
// @Success 201 {object} model.Product
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateProductInput
	if appErr := decodeJSON(r, &input); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	product, err := h.products.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// Delete godoc
// @Summary Delete a product (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := uuidParam(r, "id")
	if appErr != nil {
		respondAppError(w, appErr)
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "product removed"})
}
