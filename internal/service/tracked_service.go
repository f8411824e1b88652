package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/model"
)

// TrackedRepositoryInterface defines the contract for tracked item data access.
type TrackedRepositoryInterface interface {
	Touch(ctx context.Context, userID, productID uuid.UUID) (*model.TrackedItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TrackedProduct, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
	UserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// productLookup is the part of the product repository tracking needs.
type productLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

type TrackedService struct {
	repo     TrackedRepositoryInterface
	products productLookup
}

func NewTrackedService(repo TrackedRepositoryInterface, products productLookup) *TrackedService {
	return &TrackedService{repo: repo, products: products}
}

type TrackInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

// Track records that the user viewed a product. Tracking an already tracked
// product only moves its viewedAt forward.
func (s *TrackedService) Track(ctx context.Context, userID uuid.UUID, input TrackInput) (*model.TrackedItem, error) {
	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return nil, fmt.Errorf("tracking product %s: %w", input.ProductID, err)
	}
	item, err := s.repo.Touch(ctx, userID, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("tracking product %s: %w", input.ProductID, err)
	}
	return item, nil
}

// List returns the user's tracked products, most recently viewed first.
func (s *TrackedService) List(ctx context.Context, userID uuid.UUID) ([]model.TrackedProduct, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tracked products: %w", err)
	}
	return items, nil
}

func (s *TrackedService) Remove(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("removing tracked item %s: %w", id, err)
	}
	return nil
}

func (s *TrackedService) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.Clear(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("clearing tracked products: %w", err)
	}
	return n, nil
}
