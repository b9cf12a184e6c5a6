package persist

import "github.com/prometheus/client_golang/prometheus"

var (
	slotWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_store_writes_total",
			Help: "Persisted slot writes by store",
		},
		[]string{"store"},
	)

	slotRecoveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_store_recoveries_total",
			Help: "Reads that fell back to the empty default",
		},
		[]string{"store", "reason"},
	)
)

func init() {
	prometheus.MustRegister(slotWrites, slotRecoveries)
}
