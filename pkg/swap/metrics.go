package swap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationsPlanned counts successful plans by direction
	operationsPlanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tierswap_operations_planned_total",
		Help: "Swap operations planned, by direction",
	}, []string{"direction"})

	// planErrors counts rejected plans by error code
	planErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tierswap_plan_errors_total",
		Help: "Swap operations that could not be planned, by error code",
	}, []string{"code"})

	stepsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tierswap_steps_executed_total",
		Help: "Swap steps executed, by direction",
	}, []string{"direction"})

	fieldsMoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tierswap_fields_moved_total",
		Help: "Fields copied between swap states, by direction",
	}, []string{"direction"})

	executeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tierswap_execute_errors_total",
		Help: "Swap operations that failed during execution, by error code",
	}, []string{"code"})

	executeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tierswap_execute_duration_seconds",
		Help:    "Swap operation execution time in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	}, []string{"direction"})
)
