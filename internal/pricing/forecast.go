package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInsufficientHistory = errors.New("not enough price history for prediction")
	ErrNoFeatures          = errors.New("product has no platforms to forecast")
	ErrInvalidWindow       = errors.New("forecast window must be positive")
)

// Defaults for the forecast.
const (
	DefaultForecastWindow = 30
	DefaultDropRatio      = 0.98
)

// Regressor is any model that maps a flattened window of prices to the next
// minimum price.
type Regressor interface {
	Fit(ctx context.Context, features [][]float64, targets []float64) error
	Predict(features []float64) (float64, error)
}

// TrainingSet is the supervised set built from aligned ticks.
type TrainingSet struct {
	Features [][]float64
	Targets  []float64
}

// Len returns the number of samples.
func (s TrainingSet) Len() int { return len(s.Targets) }

// BuildTrainingSet slides a window of W ticks over the series. Each sample's
// features are the W ticks' prices flattened platform-major per tick, and its
// target is the minimum price of the tick right after the window. N ticks
// yield N-W samples.
func BuildTrainingSet(ticks []Tick, window int) (TrainingSet, error) {
	if window <= 0 {
		return TrainingSet{}, ErrInvalidWindow
	}
	if len(ticks) == 0 || len(ticks[0].Prices) == 0 {
		return TrainingSet{}, ErrNoFeatures
	}
	if len(ticks) <= window {
		return TrainingSet{}, ErrInsufficientHistory
	}

	n := len(ticks) - window
	set := TrainingSet{
		Features: make([][]float64, 0, n),
		Targets:  make([]float64, 0, n),
	}
	for i := 0; i+window < len(ticks); i++ {
		set.Features = append(set.Features, flatten(ticks[i:i+window]))
		set.Targets = append(set.Targets, ticks[i+window].Min())
	}
	return set, nil
}

// LastWindow returns the flattened features of the most recent W ticks.
func LastWindow(ticks []Tick, window int) ([]float64, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	if len(ticks) < window {
		return nil, ErrInsufficientHistory
	}
	return flatten(ticks[len(ticks)-window:]), nil
}

func flatten(ticks []Tick) []float64 {
	if len(ticks) == 0 {
		return nil
	}
	out := make([]float64, 0, len(ticks)*len(ticks[0].Prices))
	for _, t := range ticks {
		out = append(out, t.Prices...)
	}
	return out
}

// WillDrop reports whether the predicted minimum is meaningfully under the
// current best price.
func WillDrop(predicted, currentBest, ratio float64) bool {
	return predicted < currentBest*ratio
}

// ForecastStatus describes the outcome of a forecast request.
type ForecastStatus string

const (
	ForecastOK               ForecastStatus = "ok"
	ForecastNotEnoughHistory ForecastStatus = "insufficient_data"
	ForecastUnavailable      ForecastStatus = "unavailable"
)

// Prediction is the forecast response. Only Status and Message are set when
// no prediction could be made.
type Prediction struct {
	Status         ForecastStatus `json:"status"`
	Message        string         `json:"message"`
	CurrentMin     float64        `json:"currentMinPrice,omitempty"`
	PredictedMin   float64        `json:"predictedNextMinPrice,omitempty"`
	PredictedDate  *time.Time     `json:"predictedDate,omitempty"`
	WillDrop       bool           `json:"willDrop"`
	TrainingPoints int            `json:"trainingPoints,omitempty"`
}

// ForecastParams configures Forecast.
type ForecastParams struct {
	Window    int
	DropRatio float64
	// CurrentBest overrides the comparison price. Zero means the minimum of
	// the last tick.
	CurrentBest float64
}

// Forecast trains reg on the aligned ticks and predicts the next minimum
// price. Failures are reported in the returned Prediction, never as a panic.
func Forecast(ctx context.Context, ticks []Tick, reg Regressor, params ForecastParams) (pred Prediction) {
	defer func() {
		if r := recover(); r != nil {
			pred = unavailable(fmt.Sprintf("Prediction failed: %v", r))
		}
	}()

	if params.Window <= 0 {
		params.Window = DefaultForecastWindow
	}
	if params.DropRatio <= 0 {
		params.DropRatio = DefaultDropRatio
	}

	set, err := BuildTrainingSet(ticks, params.Window)
	switch {
	case errors.Is(err, ErrInsufficientHistory), errors.Is(err, ErrNoFeatures):
		return Prediction{Status: ForecastNotEnoughHistory, Message: "Not enough price history for prediction."}
	case err != nil:
		return unavailable("Prediction failed.")
	}

	if err := reg.Fit(ctx, set.Features, set.Targets); err != nil {
		return unavailable("Prediction failed.")
	}

	last, err := LastWindow(ticks, params.Window)
	if err != nil {
		return Prediction{Status: ForecastNotEnoughHistory, Message: "Not enough price history for prediction."}
	}
	predicted, err := reg.Predict(last)
	if err != nil || math.IsNaN(predicted) || math.IsInf(predicted, 0) {
		return unavailable("Prediction failed.")
	}

	current := params.CurrentBest
	if current <= 0 {
		current = ticks[len(ticks)-1].Min()
	}

	pred = Prediction{
		Status:         ForecastOK,
		Message:        "Prediction generated.",
		CurrentMin:     current,
		PredictedMin:   predicted,
		WillDrop:       WillDrop(predicted, current, params.DropRatio),
		TrainingPoints: set.Len(),
	}
	if d := ticks[len(ticks)-1].Date; !d.IsZero() {
		next := d.Add(24 * time.Hour)
		pred.PredictedDate = &next
	}
	return pred
}

func unavailable(msg string) Prediction {
	return Prediction{Status: ForecastUnavailable, Message: msg}
}
