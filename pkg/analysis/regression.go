package analysis

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// RegressionLines is the fitted trend line price(t) = Alpha + Beta*t and the
// two lines offset from it by k standard deviations of price.
type RegressionLines struct {
	Alpha      float64 `json:"alpha"`
	Beta       float64 `json:"beta"`
	UpperAlpha float64 `json:"upperAlpha"`
	LowerAlpha float64 `json:"lowerAlpha"`
}

// At returns the fitted price at elapsed time t
func (l RegressionLines) At(t float64) float64 {
	return l.Alpha + l.Beta*t
}

// UpperAt returns the resistance line at elapsed time t
func (l RegressionLines) UpperAt(t float64) float64 {
	return l.UpperAlpha + l.Beta*t
}

// LowerAt returns the support line at elapsed time t
func (l RegressionLines) LowerAt(t float64) float64 {
	return l.LowerAlpha + l.Beta*t
}

func (l RegressionLines) String() string {
	return fmt.Sprintf("RegressionLines{alpha: %f, beta: %f, upper: %f, lower: %f}", l.Alpha, l.Beta, l.UpperAlpha, l.LowerAlpha)
}

type normalEquations struct {
	n      float64
	t      []float64
	y1, y2 float64
}

func newNormalEquations(buf *SampleBuffer) (*normalEquations, error) {
	if buf == nil || buf.Len() < 2 {
		return nil, errors.Wrap(ErrInvalidWindowSize, "need at least 2 samples")
	}

	elapsed := buf.elapsed[:buf.n]
	prices := buf.price[:buf.n]

	t := make([]float64, len(elapsed))
	for i, e := range elapsed {
		t[i] = float64(e)
	}

	return &normalEquations{
		n:  float64(len(t)),
		t:  t,
		y1: floats.Sum(prices),
		y2: floats.Dot(prices, t),
	}, nil
}

// solve inverts the 2x2 matrix [[n, Σt], [Σt, Σt²]] and returns alpha and beta
func (e *normalEquations) solve() (alpha, beta float64, err error) {
	a := e.n
	b := floats.Sum(e.t)
	c := b
	d := floats.Dot(e.t, e.t)

	det := a*d - b*c
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return 0, 0, errors.Wrapf(ErrInvalidWindowSize, "singular normal equations, det = %f", det)
	}

	idet := 1.0 / det
	na := d * idet
	nb := -b * idet
	nc := -c * idet
	nd := a * idet

	alpha = na*e.y1 + nb*e.y2
	beta = nc*e.y1 + nd*e.y2
	if !isFinite(alpha) || !isFinite(beta) {
		return 0, 0, errors.Wrapf(ErrInvalidWindowSize, "non-finite fit: alpha = %f, beta = %f", alpha, beta)
	}

	return alpha, beta, nil
}

// LinReg fits the ordinary least squares line over the valid samples of the buffer.
func LinReg(buf *SampleBuffer) (alpha, beta float64, err error) {
	eq, err := newNormalEquations(buf)
	if err != nil {
		return 0, 0, err
	}

	return eq.solve()
}

// Fit computes the regression lines of a full window with the bands placed
// k sample standard deviations of price away from the intercept.
//
// The deviation is taken from the raw prices around their mean, not from
// the residuals of the fit.
func Fit(buf *SampleBuffer, k float64) (RegressionLines, error) {
	if k < 0 || !isFinite(k) {
		return RegressionLines{}, errors.Wrapf(ErrInvalidDeviation, "deviation multiplier %f", k)
	}

	if buf == nil {
		return RegressionLines{}, errors.Wrap(ErrInvalidWindowSize, "nil buffer")
	}

	if !buf.Full() {
		return RegressionLines{}, errors.Wrapf(ErrWindowNotFull, "%d of %d samples", buf.Len(), buf.Cap())
	}

	eq, err := newNormalEquations(buf)
	if err != nil {
		return RegressionLines{}, err
	}

	alpha, beta, err := eq.solve()
	if err != nil {
		return RegressionLines{}, err
	}

	sigma := sampleStdDev(buf.price[:buf.n], eq.y1/eq.n)
	return RegressionLines{
		Alpha:      alpha,
		Beta:       beta,
		UpperAlpha: alpha + k*sigma,
		LowerAlpha: alpha - k*sigma,
	}, nil
}

func sampleStdDev(prices []float64, mean float64) float64 {
	var variance float64
	for _, p := range prices {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(len(prices) - 1)
	return math.Sqrt(variance)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
