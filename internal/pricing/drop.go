package pricing

import (
	"fmt"
	"math"

	"github.com/pricewatch/backend/internal/model"
)

// DefaultDropThreshold is the drop ratio at which an alert is raised.
const DefaultDropThreshold = 0.2

// thresholdEpsilon absorbs float error so a drop of exactly the threshold qualifies.
const thresholdEpsilon = 1e-9

// DropEvaluation is the result of comparing a product's current best price
// against its historical high. Eligible is false when the product has no
// usable data and must be skipped without touching any stored alert.
type DropEvaluation struct {
	CurrentBest   float64
	MaxHistorical float64
	DropPercent   float64
	Eligible      bool
	Qualifies     bool
}

// EvaluateDrop computes the drop of the cheapest current price across all
// platforms relative to the highest price ever recorded in any platform's
// history. The current prices themselves are not part of the historical high.
// threshold is a ratio: 0.2 qualifies drops of 20% and more.
func EvaluateDrop(platforms []model.Platform, threshold float64) DropEvaluation {
	ev := DropEvaluation{CurrentBest: math.Inf(1)}
	for _, p := range platforms {
		if math.IsNaN(p.CurrentPrice) {
			ev.CurrentBest = math.NaN()
		} else if !math.IsNaN(ev.CurrentBest) && p.CurrentPrice < ev.CurrentBest {
			ev.CurrentBest = p.CurrentPrice
		}
		for _, h := range p.History {
			if h.Price > ev.MaxHistorical {
				ev.MaxHistorical = h.Price
			}
		}
	}

	if !finitePositive(ev.CurrentBest) || !finitePositive(ev.MaxHistorical) {
		return ev
	}

	ev.Eligible = true
	ev.DropPercent = (ev.MaxHistorical - ev.CurrentBest) / ev.MaxHistorical * 100
	ev.Qualifies = ev.DropPercent/100 >= threshold-thresholdEpsilon
	return ev
}

// AlertMessage renders the notification text, e.g.
// "Price dropped 20.0% from 1000 to 800.".
func AlertMessage(dropPercent, previousHigh, currentPrice float64) string {
	return fmt.Sprintf("Price dropped %s%% from %s to %s.",
		FormatPercent(dropPercent), FormatPrice(previousHigh), FormatPrice(currentPrice))
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
