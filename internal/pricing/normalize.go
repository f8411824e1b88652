// Package pricing holds the price-history math shared by the catalog, the
// alert engine and the forecast: history alignment, per-platform summaries,
// drop detection and forecast windowing. Everything here is side-effect free.
package pricing

import (
	"math"
	"slices"
	"time"

	"github.com/pricewatch/backend/internal/model"
)

// AlignPolicy selects how platforms with histories of different lengths are
// lined up into ticks.
type AlignPolicy int

const (
	// AlignStrict truncates every platform to the shortest history.
	AlignStrict AlignPolicy = iota
	// AlignForwardFill extends every platform to the longest history, repeating
	// each platform's last known sample.
	AlignForwardFill
)

func (p AlignPolicy) String() string {
	if p == AlignForwardFill {
		return "forward-fill"
	}
	return "strict"
}

// Tick is one aligned time step: one price per platform, in input order.
type Tick struct {
	Date   time.Time `json:"date"`
	Prices []float64 `json:"prices"`
}

// Min returns the lowest platform price of the tick.
func (t Tick) Min() float64 {
	m := math.Inf(1)
	for _, p := range t.Prices {
		m = math.Min(m, p)
	}
	return m
}

// SortedHistory returns a copy of the platform history ordered by date
// ascending. Samples with equal dates keep their stored order.
func SortedHistory(p model.Platform) []model.PricePoint {
	h := slices.Clone(p.History)
	slices.SortStableFunc(h, func(a, b model.PricePoint) int {
		return a.Date.Compare(b.Date)
	})
	return h
}

// Align sorts each platform's history independently and lines the samples up
// by position. A platform without history contributes its current price as a
// single sample. The tick date is taken from the first platform, in input
// order, that has a real sample at that position; otherwise the previous
// tick's date is carried forward.
func Align(platforms []model.Platform, policy AlignPolicy) []Tick {
	if len(platforms) == 0 {
		return nil
	}

	series := make([][]model.PricePoint, len(platforms))
	observed := make([]int, len(platforms))
	length := -1
	for i, p := range platforms {
		h := SortedHistory(p)
		observed[i] = len(h)
		if len(h) == 0 {
			h = []model.PricePoint{{Price: p.CurrentPrice}}
		}
		series[i] = h

		switch policy {
		case AlignForwardFill:
			if len(h) > length {
				length = len(h)
			}
		default:
			if length < 0 || len(h) < length {
				length = len(h)
			}
		}
	}

	ticks := make([]Tick, 0, length)
	var lastDate time.Time
	for i := 0; i < length; i++ {
		prices := make([]float64, len(series))
		date, dated := lastDate, false
		for j, h := range series {
			if i < len(h) {
				prices[j] = h[i].Price
				if !dated && i < observed[j] {
					date, dated = h[i].Date, true
				}
				continue
			}
			prices[j] = h[len(h)-1].Price
		}
		lastDate = date
		ticks = append(ticks, Tick{Date: date, Prices: prices})
	}
	return ticks
}
