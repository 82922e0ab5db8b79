package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WikiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "histmap_wiki_requests_total",
		Help: "Outbound knowledge-source requests by step (search, extract)",
	}, []string{"step"})
	WikiFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "histmap_wiki_fail_total",
		Help: "Failed knowledge-source requests by step",
	}, []string{"step"})
	WikiDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "histmap_wiki_duration_ms",
		Help:    "Knowledge-source request duration in milliseconds",
		Buckets: []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000},
	}, []string{"step"})
	SummariesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "histmap_summaries_total",
		Help: "Category summaries by outcome (resolved, empty, transport_failure)",
	}, []string{"category", "outcome"})
	DetailLoadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "histmap_detail_loads_total",
		Help: "Total detail loads started",
	})
	DetailDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "histmap_detail_duration_ms",
		Help:    "Time until all four category summaries resolved, in milliseconds",
		Buckets: []float64{100, 200, 500, 1000, 2000, 5000, 10000, 30000},
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "histmap_http_requests_total",
		Help: "Served HTTP requests by route",
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(WikiRequestsTotal)
	prometheus.MustRegister(WikiFailTotal)
	prometheus.MustRegister(WikiDurationMs)
	prometheus.MustRegister(SummariesTotal)
	prometheus.MustRegister(DetailLoadsTotal)
	prometheus.MustRegister(DetailDurationMs)
	prometheus.MustRegister(HTTPRequestsTotal)
}

// Handler exposes the registered metrics for Prometheus scraping.
func Handler() http.Handler { return promhttp.Handler() }
