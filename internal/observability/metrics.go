package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	placementCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itinerary",
		Subsystem: "planner",
		Name:      "placements_total",
		Help:      "Events committed to a day plan, by planning phase.",
	}, []string{"phase"})

	unplacedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itinerary",
		Subsystem: "planner",
		Name:      "unplaced_total",
		Help:      "Activities the planner could not fit into a day, by reason.",
	}, []string{"reason"})

	repairCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itinerary",
		Subsystem: "planner",
		Name:      "repairs_total",
		Help:      "Conflict repair attempts, by outcome.",
	}, []string{"outcome"})

	mealResolutionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itinerary",
		Subsystem: "planner",
		Name:      "meal_resolutions_total",
		Help:      "Meal conflicts with anchors, by resolution strategy.",
	}, []string{"strategy"})

	dayPlanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "itinerary",
		Subsystem: "planner",
		Name:      "day_plan_duration_seconds",
		Help:      "Wall time spent planning a single day.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	lookupCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itinerary",
		Subsystem: "lookup",
		Name:      "requests_total",
		Help:      "External lookups, by service and result (hit, miss, error).",
	}, []string{"service", "result"})
)

func init() {
	prometheus.MustRegister(
		placementCounter,
		unplacedCounter,
		repairCounter,
		mealResolutionCounter,
		dayPlanDuration,
		lookupCounter,
	)
}

// Planning phases
const (
	PhaseMeal     = "meal"
	PhaseAnchor   = "anchor"
	PhaseBasePlan = "base_plan"
	PhaseGreedy   = "greedy"
	PhaseRepair   = "repair"
)

// Lookup results
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// RecordPlacement counts a committed event
func RecordPlacement(phase string) {
	placementCounter.WithLabelValues(phase).Inc()
}

// RecordUnplaced counts an activity dropped from a day
func RecordUnplaced(reason string) {
	unplacedCounter.WithLabelValues(reason).Inc()
}

// RecordRepair counts a repair attempt outcome ("placed" or "failed")
func RecordRepair(outcome string) {
	repairCounter.WithLabelValues(outcome).Inc()
}

// RecordMealResolution counts how a meal conflict was resolved
func RecordMealResolution(strategy string) {
	mealResolutionCounter.WithLabelValues(strategy).Inc()
}

// ObserveDayPlan records how long a day took to plan
func ObserveDayPlan(d time.Duration) {
	dayPlanDuration.Observe(d.Seconds())
}

// RecordLookup counts an external lookup
func RecordLookup(service, result string) {
	lookupCounter.WithLabelValues(service, result).Inc()
}
