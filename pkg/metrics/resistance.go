package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c9s/bandbot/pkg/analysis"
	"github.com/c9s/bandbot/pkg/types"
)

var ResistanceBandPriceMetrics = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "bandbot_resistance_band_price",
		Help: "the regression lines projected to the current elapsed time",
	}, []string{"strategy_id", "exchange", "symbol", "line"})

var ResistanceSlopeMetrics = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "bandbot_resistance_slope",
		Help: "the slope of the last fitted trend line, price per second",
	}, []string{"strategy_id", "exchange", "symbol"})

var ResistanceLivePriceMetrics = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "bandbot_resistance_live_price",
		Help: "the mid price of the latest best bid and ask",
	}, []string{"strategy_id", "exchange", "symbol"})

var ResistanceRingAverageMetrics = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "bandbot_resistance_ring_average",
		Help: "the running average of the last sampled mid prices",
	}, []string{"strategy_id", "exchange", "symbol"})

var ResistanceSamplesCounterMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bandbot_resistance_samples_total",
		Help: "the number of finalized bucket samples",
	}, []string{"strategy_id", "exchange", "symbol"})

var ResistanceDegenerateBucketsCounterMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bandbot_resistance_degenerate_buckets_total",
		Help: "the number of buckets dropped without both a bid and an ask",
	}, []string{"strategy_id", "exchange", "symbol"})

var ResistanceFitsCounterMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bandbot_resistance_fits_total",
		Help: "the number of regression fits",
	}, []string{"strategy_id", "exchange", "symbol", "result"})

var ResistanceIntentsCounterMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bandbot_resistance_intents_total",
		Help: "the number of emitted trade intents",
	}, []string{"strategy_id", "exchange", "symbol", "intent"})

var ResistanceOrdersCounterMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bandbot_resistance_orders_total",
		Help: "the number of submitted orders",
	}, []string{"strategy_id", "exchange", "symbol", "side", "result"})

// ResistanceMetrics is the set of collectors of one strategy instance
type ResistanceMetrics struct {
	upper, alpha, lower prometheus.Gauge
	slope, live, ring   prometheus.Gauge

	samples, degenerate prometheus.Counter

	labels prometheus.Labels
}

func NewResistanceMetrics(strategyID string, exchange types.ExchangeName, symbol string) *ResistanceMetrics {
	labels := prometheus.Labels{
		"strategy_id": strategyID,
		"exchange":    exchange.String(),
		"symbol":      symbol,
	}

	band := ResistanceBandPriceMetrics.MustCurryWith(labels)
	return &ResistanceMetrics{
		upper:      band.WithLabelValues("upper"),
		alpha:      band.WithLabelValues("alpha"),
		lower:      band.WithLabelValues("lower"),
		slope:      ResistanceSlopeMetrics.With(labels),
		live:       ResistanceLivePriceMetrics.With(labels),
		ring:       ResistanceRingAverageMetrics.With(labels),
		samples:    ResistanceSamplesCounterMetrics.With(labels),
		degenerate: ResistanceDegenerateBucketsCounterMetrics.With(labels),
		labels:     labels,
	}
}

func (m *ResistanceMetrics) UpdateBand(lines analysis.RegressionLines, t float64) {
	m.upper.Set(lines.UpperAt(t))
	m.alpha.Set(lines.At(t))
	m.lower.Set(lines.LowerAt(t))
	m.slope.Set(lines.Beta)
}

func (m *ResistanceMetrics) SetLivePrice(price float64) { m.live.Set(price) }

func (m *ResistanceMetrics) SetRingAverage(avg float64) { m.ring.Set(avg) }

func (m *ResistanceMetrics) IncSamples() { m.samples.Inc() }

func (m *ResistanceMetrics) IncDegenerate() { m.degenerate.Inc() }

func (m *ResistanceMetrics) IncFit(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ResistanceFitsCounterMetrics.MustCurryWith(m.labels).WithLabelValues(result).Inc()
}

func (m *ResistanceMetrics) IncIntent(intent types.Intent) {
	ResistanceIntentsCounterMetrics.MustCurryWith(m.labels).WithLabelValues(intent.String()).Inc()
}

func (m *ResistanceMetrics) IncOrder(side types.SideType, err error) {
	result := "filled"
	if err != nil {
		result = "failed"
	}
	ResistanceOrdersCounterMetrics.MustCurryWith(m.labels).WithLabelValues(string(side), result).Inc()
}

func init() {
	prometheus.MustRegister(
		ResistanceBandPriceMetrics,
		ResistanceSlopeMetrics,
		ResistanceLivePriceMetrics,
		ResistanceRingAverageMetrics,
		ResistanceSamplesCounterMetrics,
		ResistanceDegenerateBucketsCounterMetrics,
		ResistanceFitsCounterMetrics,
		ResistanceIntentsCounterMetrics,
		ResistanceOrdersCounterMetrics,
	)
}
