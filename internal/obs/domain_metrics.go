package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ResolutionPassTotal counts promotion resolution passes by outcome.
	ResolutionPassTotal *prometheus.CounterVec
	// ResolutionPassDuration records the latency of full resolution passes.
	ResolutionPassDuration prometheus.Histogram
	// PromotionAppliedTotal counts lines that ended a pass with a promotion.
	PromotionAppliedTotal *prometheus.CounterVec
	// CatalogFailureTotal counts catalog lookups that failed open.
	CatalogFailureTotal prometheus.Counter
	// InventoryFailureTotal counts snapshot lookups that could not be served.
	InventoryFailureTotal prometheus.Counter
	// ScheduleBranchTotal counts delivery promises by cascade branch.
	ScheduleBranchTotal *prometheus.CounterVec
	// ReservationTotal counts reserve/release outcomes.
	ReservationTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ResolutionPassTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_pass_total",
			Help:      "Count of promotion resolution passes by outcome.",
		}, []string{"result"})
		ResolutionPassDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_pass_duration_ms",
			Help:      "Latency of full resolution passes in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		})
		PromotionAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_applied_total",
			Help:      "Count of lines holding a promotion after resolution, by kind.",
		}, []string{"kind"})
		CatalogFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_failure_total",
			Help:      "Catalog lookups that failed and were treated as zero candidates.",
		})
		InventoryFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_failure_total",
			Help:      "Inventory snapshot lookups that could not be served.",
		})
		ScheduleBranchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_branch_total",
			Help:      "Delivery promises by cascade branch.",
		}, []string{"branch"})
		ReservationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_total",
			Help:      "Stock reservation attempts by operation and result.",
		}, []string{"op", "result"})
		reg.MustRegister(
			ResolutionPassTotal,
			ResolutionPassDuration,
			PromotionAppliedTotal,
			CatalogFailureTotal,
			InventoryFailureTotal,
			ScheduleBranchTotal,
			ReservationTotal,
		)
	})
}
