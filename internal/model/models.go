package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"_id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsAdmin      bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// PricePoint is one observed price of a platform listing.
type PricePoint struct {
	Price float64   `json:"price"`
	Date  time.Time `json:"date"`
}

// Platform is a single seller listing of a product. History is append-only
// and not guaranteed to be sorted at rest.
type Platform struct {
	Name         string       `json:"name"`
	URL          string       `json:"url,omitempty"`
	CurrentPrice float64      `json:"currentPrice"`
	History      []PricePoint `json:"history"`
}

// Platforms is stored as a JSONB document on the product row.
type Platforms []Platform

// Value implements driver.Valuer.
func (p Platforms) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *Platforms) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*p = Platforms{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("platforms: unsupported scan type %T", src)
	}
	return json.Unmarshal(data, p)
}

// Find returns the index of the platform whose name matches case-insensitively, or -1.
func (p Platforms) Find(name string) int {
	for i := range p {
		if strings.EqualFold(p[i].Name, name) {
			return i
		}
	}
	return -1
}

var ErrDuplicatePlatform = errors.New("duplicate platform name")

// Validate checks the embedded platform invariants: names are unique
// case-insensitively and prices are non-negative.
func (p Platforms) Validate() error {
	seen := make(map[string]struct{}, len(p))
	for _, pl := range p {
		key := strings.ToLower(strings.TrimSpace(pl.Name))
		if key == "" {
			return errors.New("platform name is required")
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePlatform, pl.Name)
		}
		seen[key] = struct{}{}
		if pl.CurrentPrice < 0 {
			return fmt.Errorf("platform %s: current price must not be negative", pl.Name)
		}
		for _, h := range pl.History {
			if h.Price < 0 {
				return fmt.Errorf("platform %s: history price must not be negative", pl.Name)
			}
		}
	}
	return nil
}

type Product struct {
	ID          uuid.UUID `db:"id" json:"_id"`
	Title       string    `db:"title" json:"title"`
	Image       string    `db:"image" json:"image"`
	Description string    `db:"description" json:"description"`
	Brand       string    `db:"brand" json:"brand,omitempty"`
	Category    string    `db:"category" json:"category,omitempty"`
	Platforms   Platforms `db:"platforms" json:"platforms"`
	LastUpdated time.Time `db:"last_updated" json:"lastUpdated"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
