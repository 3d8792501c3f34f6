package resistance

import (
	"fmt"
	"time"

	"github.com/c9s/bandbot/pkg/analysis"
	"github.com/c9s/bandbot/pkg/types"
)

// Evaluator tests the live price against the fitted resistance band.
//
// It holds the position flags: a short is entered when the price pokes
// above the upper line and turns down, a long when the price dips under the
// lower line and turns up. The flags only move on fill confirmations.
type Evaluator struct {
	sensitivity float64

	lines    analysis.RegressionLines
	anchor   time.Time
	hasLines bool

	openLong, openShort bool

	recent, mostRecent float64
	ticks              int
}

func NewEvaluator(sensitivity float64) *Evaluator {
	return &Evaluator{sensitivity: sensitivity}
}

// SetLines replaces the band. anchor is the time elapsed 0 of the window the
// lines were fitted on.
func (e *Evaluator) SetLines(lines analysis.RegressionLines, anchor time.Time) {
	e.lines = lines
	e.anchor = anchor
	e.hasLines = true
}

func (e *Evaluator) Lines() (analysis.RegressionLines, bool) {
	return e.lines, e.hasLines
}

// Elapsed converts a wall-clock time into the elapsed seconds of the band
func (e *Evaluator) Elapsed(now time.Time) float64 {
	return now.Sub(e.anchor).Seconds()
}

// Thresholds returns the sell and buy prices of the band at elapsed time t
func (e *Evaluator) Thresholds(t float64) (sell, buy float64) {
	return e.lines.UpperAt(t), e.lines.LowerAt(t)
}

func (e *Evaluator) OpenLong() bool { return e.openLong }

func (e *Evaluator) OpenShort() bool { return e.openShort }

// Evaluate records price as the most recent tick and returns the intent it
// triggers at elapsed time t.
func (e *Evaluator) Evaluate(price, t float64) types.Intent {
	e.recent, e.mostRecent = e.mostRecent, price
	if e.ticks < 2 {
		e.ticks++
	}

	if !e.hasLines || e.ticks < 2 {
		return types.IntentNone
	}

	sell, buy := e.Thresholds(t)

	decreasing := e.mostRecent < e.recent
	if price >= sell && decreasing && !e.openShort && (price-sell) >= e.sensitivity*price {
		return types.IntentShort
	}

	increasing := e.mostRecent > e.recent
	if price <= buy && increasing && !e.openLong && (buy-price) >= e.sensitivity*buy {
		return types.IntentLong
	}

	return types.IntentNone
}

// OnFill applies a confirmed fill. A fill against the opposite position
// closes it and opens the new one.
func (e *Evaluator) OnFill(intent types.Intent) {
	switch intent {
	case types.IntentShort:
		e.openShort = true
		e.openLong = false

	case types.IntentLong:
		e.openLong = true
		e.openShort = false
	}
}

// Reversing reports whether entering intent closes an open opposite position
func (e *Evaluator) Reversing(intent types.Intent) bool {
	switch intent {
	case types.IntentShort:
		return e.openLong
	case types.IntentLong:
		return e.openShort
	}
	return false
}

func (e *Evaluator) String() string {
	return fmt.Sprintf("Evaluator{lines: %s, openLong: %t, openShort: %t, recent: %f, mostRecent: %f}",
		e.lines, e.openLong, e.openShort, e.recent, e.mostRecent)
}
