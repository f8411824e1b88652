package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/model"
)

//go:generate mockery --name=UserRepositoryInterface --output=../mocks --outpkg=mocks
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

//go:generate mockery --name=ProductRepositoryInterface --output=../mocks --outpkg=mocks
type ProductRepositoryInterface interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	UpdatedAt(ctx context.Context, id uuid.UUID) (time.Time, error)
	List(ctx context.Context, search string) ([]model.Product, error)
	AddPricePoint(ctx context.Context, id uuid.UUID, platform string, price float64, at time.Time) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

//go:generate mockery --name=TrackedRepositoryInterface --output=../mocks --outpkg=mocks
type TrackedRepositoryInterface interface {
	Touch(ctx context.Context, userID, productID uuid.UUID) (*model.TrackedItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TrackedProduct, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
	UserIDs(ctx context.Context) ([]uuid.UUID, error)
}

//go:generate mockery --name=AlertRepositoryInterface --output=../mocks --outpkg=mocks
type AlertRepositoryInterface interface {
	Upsert(ctx context.Context, alert *model.Alert) (model.UpsertResult, error)
	DeleteForProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.AlertView, error)
	MarkSeen(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, asOf time.Time) (int64, error)
	CountUnseen(ctx context.Context, userID uuid.UUID) (int, error)
}

var (
	_ UserRepositoryInterface    = (*UserRepository)(nil)
	_ ProductRepositoryInterface = (*ProductRepository)(nil)
	_ TrackedRepositoryInterface = (*TrackedRepository)(nil)
	_ AlertRepositoryInterface   = (*AlertRepository)(nil)
)
