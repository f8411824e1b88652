package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pricewatch/backend/internal/model"
)

// Recommendation labels.
const (
	RecommendationBuy  = "Buy Now"
	RecommendationHold = "Hold/Watch"
)

// RecommendationPolicy is the fixed "Buy Now" heuristic: buy when the latest
// price is within NearLowRatio of the lowest price, or at most
// BelowAverageRatio of the average. It is a threshold rule, not a statistical test.
type RecommendationPolicy struct {
	NearLowRatio      float64
	BelowAverageRatio float64
}

// DefaultRecommendationPolicy returns the 5%-of-low / 5%-under-average rule.
func DefaultRecommendationPolicy() RecommendationPolicy {
	return RecommendationPolicy{NearLowRatio: 1.05, BelowAverageRatio: 0.95}
}

// Recommend applies the policy to one platform's statistics.
func (p RecommendationPolicy) Recommend(latest, lowest, average float64) string {
	if latest <= lowest*p.NearLowRatio || latest <= average*p.BelowAverageRatio {
		return RecommendationBuy
	}
	return RecommendationHold
}

// PlatformSummary holds the statistics of one platform. DropPercent keeps full
// precision; DropPercentLabel is the one-decimal display form.
type PlatformSummary struct {
	Name             string             `json:"name"`
	URL              string             `json:"url,omitempty"`
	Latest           float64            `json:"latest"`
	Highest          float64            `json:"highest"`
	Lowest           float64            `json:"lowest"`
	Average          float64            `json:"average"`
	DropPercent      float64            `json:"dropPercent"`
	DropPercentLabel string             `json:"dropPercentLabel"`
	Recommendation   string             `json:"recommendation"`
	ChartData        []model.PricePoint `json:"chartData"`
}

// Summary is the aggregated view of a product.
type Summary struct {
	Platforms []PlatformSummary `json:"platforms"`
	BestDeal  *PlatformSummary  `json:"bestDeal"`
}

// SummarizePlatform computes the statistics of a single platform. The current
// price is the latest value; history is only the trend record. asOf dates the
// single chart point used when the platform has no history.
func SummarizePlatform(p model.Platform, policy RecommendationPolicy, asOf time.Time) PlatformSummary {
	latest := p.CurrentPrice
	highest, lowest, average := latest, latest, latest

	if len(p.History) > 0 {
		var sum float64
		for _, h := range p.History {
			highest = math.Max(highest, h.Price)
			lowest = math.Min(lowest, h.Price)
			sum += h.Price
		}
		average = sum / float64(len(p.History))
	}

	drop := DropPercent(highest, latest)

	chart := SortedHistory(p)
	if len(chart) == 0 {
		chart = []model.PricePoint{{Price: latest, Date: asOf}}
	}

	return PlatformSummary{
		Name:             p.Name,
		URL:              p.URL,
		Latest:           latest,
		Highest:          highest,
		Lowest:           lowest,
		Average:          average,
		DropPercent:      drop,
		DropPercentLabel: FormatPercent(drop),
		Recommendation:   policy.Recommend(latest, lowest, average),
		ChartData:        chart,
	}
}

// Summarize computes per-platform statistics and picks the best deal: the
// platform with the lowest latest price, first occurrence winning ties. The
// best deal is nil when there are no platforms.
func Summarize(platforms []model.Platform, policy RecommendationPolicy, asOf time.Time) Summary {
	s := Summary{Platforms: make([]PlatformSummary, 0, len(platforms))}
	best := -1
	for _, p := range platforms {
		ps := SummarizePlatform(p, policy, asOf)
		s.Platforms = append(s.Platforms, ps)
		if best < 0 || ps.Latest < s.Platforms[best].Latest {
			best = len(s.Platforms) - 1
		}
	}
	if best >= 0 {
		deal := s.Platforms[best]
		s.BestDeal = &deal
	}
	return s
}

// DropPercent is the decline of latest from high, in percent. A high that is
// not a finite positive number yields 0.
func DropPercent(high, latest float64) float64 {
	if !(high > 0) || math.IsInf(high, 0) || math.IsNaN(latest) || math.IsInf(latest, 0) {
		return 0
	}
	return (high - latest) / high * 100
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}

// FormatPrice renders a price without decimals.
func FormatPrice(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(0)
}
