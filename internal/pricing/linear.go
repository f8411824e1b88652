package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var ErrNotFitted = errors.New("regressor is not fitted")

// LinearRegressor is a ridge regression on standardised features and targets,
// solved in closed form. Window features of a price series are strongly
// collinear, so Lambda must stay positive.
type LinearRegressor struct {
	Lambda float64

	weights *mat.VecDense
	mean    []float64
	scale   []float64
	yMean   float64
	yScale  float64
}

// NewLinearRegressor returns a regressor with a light ridge penalty.
func NewLinearRegressor() *LinearRegressor {
	return &LinearRegressor{Lambda: 1e-3}
}

// Fit trains the model. ctx is checked between the build, accumulate and
// solve steps and per row while building the design matrix.
func (r *LinearRegressor) Fit(ctx context.Context, features [][]float64, targets []float64) error {
	n := len(features)
	if n == 0 || n != len(targets) {
		return fmt.Errorf("fit: %d samples with %d targets", n, len(targets))
	}
	d := len(features[0])
	if d == 0 {
		return errors.New("fit: empty feature vector")
	}
	for i, row := range features {
		if len(row) != d {
			return fmt.Errorf("fit: sample %d has %d features, want %d", i, len(row), d)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	lambda := r.Lambda
	if lambda <= 0 {
		lambda = 1e-3
	}

	mean, scale := columnStats(features, d)
	yMean, yScale := popStats(targets)

	x := mat.NewDense(n, d, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range features {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j, v := range row {
			x.Set(i, j, (v-mean[j])/scale[j])
		}
		y.SetVec(i, (targets[i]-yMean)/yScale)
	}

	// A = X'X/n + lambda*I, b = X'y/n
	inv := 1 / float64(n)
	var a mat.SymDense
	a.SymOuterK(inv, x.T())
	for j := 0; j < d; j++ {
		a.SetSym(j, j, a.At(j, j)+lambda)
	}
	b := mat.NewVecDense(d, nil)
	b.MulVec(x.T(), y)
	b.ScaleVec(inv, b)

	if err := ctx.Err(); err != nil {
		return err
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(&a); !ok {
		return errors.New("fit: matrix is not positive definite")
	}
	w := mat.NewVecDense(d, nil)
	if err := chol.SolveVecTo(w, b); err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	r.weights, r.mean, r.scale = w, mean, scale
	r.yMean, r.yScale = yMean, yScale
	return nil
}

// Predict returns the model output for one feature vector.
func (r *LinearRegressor) Predict(features []float64) (float64, error) {
	if r.weights == nil {
		return 0, ErrNotFitted
	}
	if len(features) != r.weights.Len() {
		return 0, fmt.Errorf("predict: got %d features, want %d", len(features), r.weights.Len())
	}
	x := mat.NewVecDense(len(features), nil)
	for j, v := range features {
		x.SetVec(j, (v-r.mean[j])/r.scale[j])
	}
	return mat.Dot(r.weights, x)*r.yScale + r.yMean, nil
}

func columnStats(rows [][]float64, d int) (mean, scale []float64) {
	mean = make([]float64, d)
	scale = make([]float64, d)
	col := make([]float64, len(rows))
	for j := 0; j < d; j++ {
		for i, row := range rows {
			col[i] = row[j]
		}
		mean[j], scale[j] = popStats(col)
	}
	return mean, scale
}

// popStats returns the mean and population standard deviation, with a zero
// deviation replaced by 1 so constant columns standardise to zero.
func popStats(v []float64) (mean, sd float64) {
	mean, sd = stat.PopMeanStdDev(v, nil)
	if sd == 0 || math.IsNaN(sd) {
		sd = 1
	}
	return mean, sd
}
