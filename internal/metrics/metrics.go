package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all books API metrics
const namespace = "books_api"

// Registry is the Prometheus registry exposed on /metrics
var Registry = prometheus.NewRegistry()

// AppInfo exposes build metadata as labels (value is always 1)
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// BookWrites counts successful catalogue mutations by operation
var BookWrites = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "book_writes_total",
		Help:      "Total number of successful book writes",
	},
	[]string{"operation"}, // operation: create|replace|patch|delete|seed
)

// APIKeyRejections counts write requests refused for a missing or wrong key
var APIKeyRejections = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_key_rejections_total",
		Help:      "Total number of write requests rejected by API key checks",
	},
	[]string{"reason"}, // reason: missing|invalid
)

var registerRuntime sync.Once

// Init registers runtime collectors and records version information. Safe to
// call more than once.
func Init(version, commit, buildDate string) {
	registerRuntime.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	AppInfo.Reset()
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
