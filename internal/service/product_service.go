package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/logger"
	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/pricing"
)

var ErrInvalidPrice = errors.New("price must be a finite number >= 0")

// ProductRepositoryInterface defines the contract for product data access.
// Implementations must be safe for concurrent use.
type ProductRepositoryInterface interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	UpdatedAt(ctx context.Context, id uuid.UUID) (time.Time, error)
	List(ctx context.Context, search string) ([]model.Product, error)
	AddPricePoint(ctx context.Context, id uuid.UUID, platform string, price float64, at time.Time) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SummaryCache stores computed summaries. Errors are logged, never returned
// to callers.
type SummaryCache interface {
	Get(ctx context.Context, productID uuid.UUID) (*pricing.Summary, bool, error)
	Set(ctx context.Context, productID uuid.UUID, s *pricing.Summary) error
	Invalidate(ctx context.Context, productID uuid.UUID) error
}

// ForecastOptions configures the product forecast.
type ForecastOptions struct {
	Window    int
	DropRatio float64
	Timeout   time.Duration
	// NewRegressor returns a fresh model per request. Defaults to the
	// built-in linear regressor.
	NewRegressor func() pricing.Regressor
}

// ProductService handles the catalog, price updates, summaries and forecasts.
type ProductService struct {
	repo     ProductRepositoryInterface
	cache    SummaryCache
	policy   pricing.RecommendationPolicy
	forecast ForecastOptions
	now      func() time.Time
}

// NewProductService creates a new ProductService. cache may be nil.
func NewProductService(repo ProductRepositoryInterface, cache SummaryCache, policy pricing.RecommendationPolicy, forecast ForecastOptions) *ProductService {
	if forecast.NewRegressor == nil {
		forecast.NewRegressor = func() pricing.Regressor { return pricing.NewLinearRegressor() }
	}
	if forecast.Timeout <= 0 {
		forecast.Timeout = 10 * time.Second
	}
	return &ProductService{
		repo:     repo,
		cache:    cache,
		policy:   policy,
		forecast: forecast,
		now:      time.Now,
	}
}

type PlatformInput struct {
	Name         string            `json:"name" validate:"required,max=100"`
	URL          string            `json:"url" validate:"omitempty,url"`
	CurrentPrice *float64          `json:"currentPrice" validate:"required,gte=0"`
	History      []PricePointInput `json:"history" validate:"omitempty,dive"`
}

type PricePointInput struct {
	Price *float64  `json:"price" validate:"required,gte=0"`
	Date  time.Time `json:"date" validate:"required"`
}

type CreateProductInput struct {
	Title       string          `json:"title" validate:"required,max=500"`
	Image       string          `json:"image" validate:"omitempty,max=2000"`
	Description string          `json:"description"`
	Brand       string          `json:"brand" validate:"omitempty,max=255"`
	Category    string          `json:"category" validate:"omitempty,max=255"`
	Platforms   []PlatformInput `json:"platforms" validate:"omitempty,max=20,dive"`
}

type AddPriceInput struct {
	PlatformName string   `json:"platformName" validate:"required"`
	Price        *float64 `json:"price" validate:"required,gte=0"`
}

// ForecastResponse is the forecast of one product.
type ForecastResponse struct {
	ProductID uuid.UUID `json:"productId"`
	pricing.Prediction
}

// Price returns a pointer to p, for building inputs in code.
func Price(p float64) *float64 {
	return &p
}

// validPrice rejects missing, negative and non-finite prices.
func validPrice(p *float64) bool {
	return p != nil && *p >= 0 && !math.IsInf(*p, 0) && !math.IsNaN(*p)
}

// List returns products, optionally filtered by a title search.
func (s *ProductService) List(ctx context.Context, search string) ([]model.Product, error) {
	products, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// Get retrieves a product by ID.
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %s: %w", id, err)
	}
	return product, nil
}

// Create validates the embedded platforms and stores a new product.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*model.Product, error) {
	platforms := make(model.Platforms, 0, len(input.Platforms))
	for _, p := range input.Platforms {
		if !validPrice(p.CurrentPrice) {
			return nil, fmt.Errorf("platform %s: %w", p.Name, ErrInvalidPrice)
		}
		history := make([]model.PricePoint, 0, len(p.History))
		for _, h := range p.History {
			if !validPrice(h.Price) {
				return nil, fmt.Errorf("platform %s history: %w", p.Name, ErrInvalidPrice)
			}
			history = append(history, model.PricePoint{Price: *h.Price, Date: h.Date})
		}
		platforms = append(platforms, model.Platform{
			Name:         strings.TrimSpace(p.Name),
			URL:          p.URL,
			CurrentPrice: *p.CurrentPrice,
			History:      history,
		})
	}
	if err := platforms.Validate(); err != nil {
		return nil, err
	}

	product := &model.Product{
		Title:       strings.TrimSpace(input.Title),
		Image:       input.Image,
		Description: input.Description,
		Brand:       input.Brand,
		Category:    input.Category,
		Platforms:   platforms,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	return product, nil
}

// Delete removes a product and its cached summary.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting product %s: %w", id, err)
	}
	s.invalidate(ctx, id)
	return nil
}

// AddPrice records a new observation for one platform: the current price is
// replaced and the sample appended to history. An unknown platform leaves
// the product unchanged.
func (s *ProductService) AddPrice(ctx context.Context, id uuid.UUID, input AddPriceInput) (*model.Product, error) {
	if !validPrice(input.Price) {
		return nil, ErrInvalidPrice
	}
	price := *input.Price
	product, err := s.repo.AddPricePoint(ctx, id, strings.TrimSpace(input.PlatformName), price, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("adding price to product %s: %w", id, err)
	}
	s.invalidate(ctx, id)

	logger.FromContext(ctx).Info("price recorded",
		slog.String("product_id", id.String()),
		slog.String("platform", input.PlatformName),
		slog.Float64("price", price),
	)
	return product, nil
}

// Summary returns the per-platform statistics and best deal of a product.
func (s *ProductService) Summary(ctx context.Context, id uuid.UUID) (*pricing.Summary, error) {
	log := logger.FromContext(ctx)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			log.Warn("summary cache read failed", slog.String("product_id", id.String()), slog.String("error", err.Error()))
		}
		if ok {
			return cached, nil
		}
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %s: %w", id, err)
	}

	summary := pricing.Summarize(product.Platforms, s.policy, product.LastUpdated)
	if s.cache != nil && s.unchangedSince(ctx, product) {
		if err := s.cache.Set(ctx, id, &summary); err != nil {
			log.Warn("summary cache write failed", slog.String("product_id", id.String()), slog.String("error", err.Error()))
		}
	}
	return &summary, nil
}

// unchangedSince reports whether product is still the stored version. A
// write landing between this check and the cache Set can still leave a
// stale summary behind, for at most the cache TTL.
func (s *ProductService) unchangedSince(ctx context.Context, product *model.Product) bool {
	current, err := s.repo.UpdatedAt(ctx, product.ID)
	if err != nil {
		logger.FromContext(ctx).Warn("summary freshness check failed",
			slog.String("product_id", product.ID.String()), slog.String("error", err.Error()))
		return false
	}
	return current.Equal(product.UpdatedAt)
}

// Forecast predicts the next minimum price of a product. Missing data and
// model failures come back as prediction states, not errors.
func (s *ProductService) Forecast(ctx context.Context, id uuid.UUID) (*ForecastResponse, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %s: %w", id, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.forecast.Timeout)
	defer cancel()

	ticks := pricing.Align(product.Platforms, pricing.AlignForwardFill)
	currentBest := pricing.EvaluateDrop(product.Platforms, 0).CurrentBest
	if math.IsInf(currentBest, 0) || math.IsNaN(currentBest) {
		currentBest = 0
	}

	pred := pricing.Forecast(ctx, ticks, s.forecast.NewRegressor(), pricing.ForecastParams{
		Window:      s.forecast.Window,
		DropRatio:   s.forecast.DropRatio,
		CurrentBest: currentBest,
	})
	if pred.Status != pricing.ForecastOK {
		logger.FromContext(ctx).Debug("forecast not produced",
			slog.String("product_id", id.String()),
			slog.String("status", string(pred.Status)),
		)
	}
	return &ForecastResponse{ProductID: id, Prediction: pred}, nil
}

func (s *ProductService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		logger.FromContext(ctx).Warn("summary cache invalidation failed",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()),
		)
	}
}
