package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checkoutsTotal,
		callbacksTotal,
	)
}

var (
	checkoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkout-session creations against the payment gateway, by result.",
		},
		[]string{"result"},
	)

	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Inbound payment callbacks by gateway status and applied outcome.",
		},
		[]string{"status", "outcome"},
	)
)

func IncCheckout(result string) {
	checkoutsTotal.WithLabelValues(norm(result)).Inc()
}

// IncCallback records one callback delivery. Outcome is "applied" when the
// conditional update matched a pending row, "noop" for duplicate or late
// deliveries, "rejected" for invalid payloads.
func IncCallback(status, outcome string) {
	callbacksTotal.WithLabelValues(norm(status), norm(outcome)).Inc()
}
