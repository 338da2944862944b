package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		purchasesTotal,
		configUploadsTotal,
		decayedActive,
	)
}

var (
	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Ledger rows created, by initial path (direct/checkout).",
		},
		[]string{"path"},
	)

	configUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_uploads_total",
			Help: "Admin configuration uploads by mode (attach/replace) and result.",
		},
		[]string{"mode", "result"},
	)

	decayedActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "purchases_decayed_active",
			Help: "Active ledger rows whose expiry has passed (derived, never stored).",
		},
	)
)

func IncPurchase(path string) {
	purchasesTotal.WithLabelValues(norm(path)).Inc()
}

func IncConfigUpload(mode, result string) {
	configUploadsTotal.WithLabelValues(norm(mode), norm(result)).Inc()
}

func SetDecayedActive(n int) {
	decayedActive.Set(float64(n))
}
