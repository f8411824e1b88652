package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pricewatch/backend/internal/model"
)

var ErrAlertNotFound = errors.New("alert not found")

type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Upsert writes the alert for (user, product) in a single statement. A row
// whose drop values are unchanged is left untouched, including its seen flag;
// changed values overwrite the row and reset seen. Concurrent upserts for the
// same pair resolve to one row through the unique constraint.
func (r *AlertRepository) Upsert(ctx context.Context, alert *model.Alert) (model.UpsertResult, error) {
	query := `
		INSERT INTO alerts (id, user_id, product_id, drop_percent, current_price, previous_high, message, seen, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, NOW(), NOW())
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			drop_percent = EXCLUDED.drop_percent,
			current_price = EXCLUDED.current_price,
			previous_high = EXCLUDED.previous_high,
			message = EXCLUDED.message,
			seen = false,
			updated_at = NOW()
		WHERE (alerts.drop_percent, alerts.current_price, alerts.previous_high)
			IS DISTINCT FROM (EXCLUDED.drop_percent, EXCLUDED.current_price, EXCLUDED.previous_high)
		RETURNING id, seen, created_at, updated_at, (xmax = 0) AS inserted`

	var inserted bool
	err := r.db.QueryRowxContext(ctx, query,
		uuid.New(), alert.UserID, alert.ProductID,
		alert.DropPercent, alert.CurrentPrice, alert.PreviousHigh, alert.Message,
	).Scan(&alert.ID, &alert.Seen, &alert.CreatedAt, &alert.UpdatedAt, &inserted)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return model.UpsertUnchanged, nil
	case err != nil:
		return model.UpsertUnchanged, err
	case inserted:
		return model.UpsertCreated, nil
	default:
		return model.UpsertUpdated, nil
	}
}

// DeleteForProduct removes the user's alert for a product, reporting whether
// one existed.
func (r *AlertRepository) DeleteForProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	query := `DELETE FROM alerts WHERE user_id = $1 AND product_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *AlertRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM alerts WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// ListByUser returns the user's alerts with product title and image, most
// recently changed first.
func (r *AlertRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.AlertView, error) {
	alerts := []model.AlertView{}
	query := `
		SELECT a.*, p.title AS product_title, p.image AS product_image
		FROM alerts a
		JOIN products p ON p.id = a.product_id
		WHERE a.user_id = $1
		ORDER BY a.updated_at DESC`
	err := r.db.SelectContext(ctx, &alerts, query, userID)
	return alerts, err
}

// MarkSeen flags the given alerts of the user as seen. Alerts rewritten
// after asOf are left unseen so a newer drop is not hidden.
func (r *AlertRepository) MarkSeen(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, asOf time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	query := `
		UPDATE alerts SET seen = true
		WHERE user_id = $1 AND id = ANY($2::uuid[]) AND seen = false AND updated_at <= $3`
	result, err := r.db.ExecContext(ctx, query, userID, pq.Array(strs), asOf)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *AlertRepository) CountUnseen(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM alerts WHERE user_id = $1 AND seen = false`
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}
