package burrow

import (
	"github.com/prometheus/client_golang/prometheus"
)

var StoreOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "burrow",
	Subsystem: "store",
	Name:      "operations",
}, []string{"op", "kind", "result"})

var PoolOpenHandles = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "burrow",
	Subsystem: "pool",
	Name:      "open_handles",
})

var PoolAcquires = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "burrow",
	Subsystem: "pool",
	Name:      "acquires",
}, []string{"result"})

var ReconcileRepairs = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "burrow",
	Subsystem: "store",
	Name:      "reconcile_repairs",
}, []string{"kind"})

// RegisterMetrics registers the package's metric vectors with reg. Engine
// metrics are per-Store; register a KVCollector for each open collection.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(StoreOperations, PoolOpenHandles, PoolAcquires, ReconcileRepairs)
}

func countOp(op string, kind IndexKind, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StoreOperations.WithLabelValues(op, kind.String(), result).Inc()
}
