package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pricewatch/backend/internal/model"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrPlatformNotFound = errors.New("platform not found on product")
)

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO products (id, title, image, description, brand, category, platforms, last_updated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), NOW())
		RETURNING last_updated, created_at, updated_at`

	product.ID = uuid.New()
	if product.Platforms == nil {
		product.Platforms = model.Platforms{}
	}
	return r.db.QueryRowxContext(ctx, query,
		product.ID, product.Title, product.Image, product.Description,
		product.Brand, product.Category, product.Platforms,
	).Scan(&product.LastUpdated, &product.CreatedAt, &product.UpdatedAt)
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1`
	err := r.db.GetContext(ctx, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return &product, err
}

// UpdatedAt returns the version stamp of a product without loading it.
func (r *ProductRepository) UpdatedAt(ctx context.Context, id uuid.UUID) (time.Time, error) {
	var updatedAt time.Time
	err := r.db.GetContext(ctx, &updatedAt, `SELECT updated_at FROM products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrProductNotFound
	}
	return updatedAt, err
}

// List returns products whose title contains search, case-insensitively.
// An empty search returns every product.
func (r *ProductRepository) List(ctx context.Context, search string) ([]model.Product, error) {
	products := []model.Product{}
	if search == "" {
		query := `SELECT * FROM products ORDER BY created_at DESC`
		err := r.db.SelectContext(ctx, &products, query)
		return products, err
	}
	query := `
		SELECT * FROM products
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &products, query, escapeLike(search))
	return products, err
}

// AddPricePoint sets the current price of the named platform and appends the
// observation to its history in one transaction. The row is locked so
// concurrent updates of the same product serialize.
func (r *ProductRepository) AddPricePoint(ctx context.Context, id uuid.UUID, platform string, price float64, at time.Time) (*model.Product, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var product model.Product
	err = tx.GetContext(ctx, &product, `SELECT * FROM products WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	idx := product.Platforms.Find(platform)
	if idx < 0 {
		return nil, ErrPlatformNotFound
	}
	p := &product.Platforms[idx]
	p.CurrentPrice = price
	p.History = append(p.History, model.PricePoint{Price: price, Date: at})

	query := `
		UPDATE products
		SET platforms = $2, last_updated = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING last_updated, updated_at`
	err = tx.QueryRowxContext(ctx, query, id, product.Platforms, at).
		Scan(&product.LastUpdated, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProductNotFound
	}
	return nil
}
