package metrics

import "github.com/prometheus/client_golang/prometheus"

// StoreMetrics counts snapshot writes of the persisted state stores.
type StoreMetrics struct {
	writes   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewStoreMetrics registers the store persistence metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_store_persist_total",
		Help: "Persisted snapshot writes per store.",
	}, []string{"store"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_store_persist_failures_total",
		Help: "Failed snapshot reads or writes per store.",
	}, []string{"store", "op"})
	reg.MustRegister(writes, failures)
	return &StoreMetrics{writes: writes, failures: failures}
}

func (s *StoreMetrics) IncWrite(store string) {
	if s == nil || s.writes == nil {
		return
	}
	s.writes.WithLabelValues(normalizeLabel(store)).Inc()
}

// IncFailure records a swallowed persistence error; op is "read", "decode" or "write".
func (s *StoreMetrics) IncFailure(store, op string) {
	if s == nil || s.failures == nil {
		return
	}
	s.failures.WithLabelValues(normalizeLabel(store), normalizeLabel(op)).Inc()
}
