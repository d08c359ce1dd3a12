package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics counts cart mutation outcomes that matter operationally.
type CartMetrics struct {
	lockConflicts prometheus.Counter
	refetches     prometheus.Counter
}

func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	lockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_item_lock_conflicts_total",
		Help: "Mutations rejected because the line item was still processing.",
	})
	refetches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_session_refetches_total",
		Help: "Cart sessions rebuilt after an ambiguous mutation failure.",
	})
	reg.MustRegister(lockConflicts, refetches)
	return &CartMetrics{lockConflicts: lockConflicts, refetches: refetches}
}

func (c *CartMetrics) IncLockConflict() {
	if c == nil || c.lockConflicts == nil {
		return
	}
	c.lockConflicts.Inc()
}

func (c *CartMetrics) IncRefetch() {
	if c == nil || c.refetches == nil {
		return
	}
	c.refetches.Inc()
}
