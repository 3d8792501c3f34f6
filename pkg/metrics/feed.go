package metrics

import "github.com/prometheus/client_golang/prometheus"

var FeedQuotesCounterMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bandbot_feed_quotes_total",
		Help: "the number of quote updates received from the exchange stream",
	}, []string{"exchange", "symbol"})

var FeedReconnectsCounterMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bandbot_feed_reconnects_total",
		Help: "the number of stream reconnections",
	}, []string{"exchange"})

func init() {
	prometheus.MustRegister(FeedQuotesCounterMetrics, FeedReconnectsCounterMetrics)
}
