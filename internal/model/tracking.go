package model

import (
	"time"

	"github.com/google/uuid"
)

// TrackedItem is a (user, product) pair, unique per pair; re-tracking
// only moves ViewedAt forward.
type TrackedItem struct {
	ID        uuid.UUID `db:"id" json:"_id"`
	UserID    uuid.UUID `db:"user_id" json:"user"`
	ProductID uuid.UUID `db:"product_id" json:"product"`
	ViewedAt  time.Time `db:"viewed_at" json:"viewedAt"`
}

// TrackedProduct is a tracked item resolved to its product.
type TrackedProduct struct {
	Product
	TrackID  uuid.UUID `db:"track_id" json:"trackId"`
	ViewedAt time.Time `db:"viewed_at" json:"viewedAt"`
}

// Alert is the cached drop signal for one (user, product) pair. Refreshes
// overwrite it in place.
type Alert struct {
	ID           uuid.UUID `db:"id" json:"_id"`
	UserID       uuid.UUID `db:"user_id" json:"user"`
	ProductID    uuid.UUID `db:"product_id" json:"product"`
	DropPercent  float64   `db:"drop_percent" json:"dropPercent"`
	CurrentPrice float64   `db:"current_price" json:"currentPrice"`
	PreviousHigh float64   `db:"previous_high" json:"previousHigh"`
	Message      string    `db:"message" json:"message"`
	Seen         bool      `db:"seen" json:"seen"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// AlertView is an alert joined with the product fields the bell list shows.
type AlertView struct {
	Alert
	ProductTitle string `db:"product_title" json:"productTitle"`
	ProductImage string `db:"product_image" json:"productImage"`
}

// UpsertResult reports what an alert upsert did to the stored row.
type UpsertResult int

const (
	UpsertUnchanged UpsertResult = iota
	UpsertCreated
	UpsertUpdated
)

func (r UpsertResult) String() string {
	switch r {
	case UpsertCreated:
		return "created"
	case UpsertUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}
