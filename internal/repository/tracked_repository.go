package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pricewatch/backend/internal/model"
)

var ErrTrackedNotFound = errors.New("tracked item not found")

type TrackedRepository struct {
	db *sqlx.DB
}

func NewTrackedRepository(db *sqlx.DB) *TrackedRepository {
	return &TrackedRepository{db: db}
}

// Touch tracks the product for the user, or moves viewed_at forward when it
// is already tracked. Exactly one row exists per (user, product).
func (r *TrackedRepository) Touch(ctx context.Context, userID, productID uuid.UUID) (*model.TrackedItem, error) {
	query := `
		INSERT INTO tracked_items (id, user_id, product_id, viewed_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, product_id) DO UPDATE SET viewed_at = EXCLUDED.viewed_at
		RETURNING id, user_id, product_id, viewed_at`

	var item model.TrackedItem
	err := r.db.QueryRowxContext(ctx, query, uuid.New(), userID, productID).StructScan(&item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByUser returns the user's tracked products, most recently viewed first.
func (r *TrackedRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TrackedProduct, error) {
	items := []model.TrackedProduct{}
	query := `
		SELECT p.*, t.id AS track_id, t.viewed_at
		FROM tracked_items t
		JOIN products p ON p.id = t.product_id
		WHERE t.user_id = $1
		ORDER BY t.viewed_at DESC`
	err := r.db.SelectContext(ctx, &items, query, userID)
	return items, err
}

func (r *TrackedRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM tracked_items WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTrackedNotFound
	}
	return nil
}

func (r *TrackedRepository) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tracked_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// UserIDs returns every user that tracks at least one product.
func (r *TrackedRepository) UserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT user_id FROM tracked_items`)
	return ids, err
}
