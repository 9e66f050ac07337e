package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/deepmodel/agenthub/internal/model"
)

var (
	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agenthub_tasks_total",
			Help: "Total number of tasks dispatched, by agent type and terminal status.",
		},
		[]string{"agent_type", "status"},
	)

	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agenthub_task_duration_seconds",
			Help:    "Task execution duration in seconds, by agent type.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"agent_type"},
	)

	plansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agenthub_plans_total",
			Help: "Total number of execution plans processed, by overall status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(tasksTotal)
	prometheus.MustRegister(taskDuration)
	prometheus.MustRegister(plansTotal)

	// Pre-initialize label combinations for the built-in agent kinds so they
	// appear in /metrics with value 0 from startup, rather than only after
	// first observation.
	builtins := []string{model.AgentSummary, model.AgentAnalyst, model.AgentValidation, model.AgentAggregation}
	for _, at := range builtins {
		tasksTotal.WithLabelValues(at, model.StatusCompleted)
		tasksTotal.WithLabelValues(at, model.StatusFailed)
		tasksTotal.WithLabelValues(at, model.StatusTimedOut)
	}
	for _, status := range []string{model.OverallCompleted, model.OverallPartialSuccess, model.OverallFailed} {
		plansTotal.WithLabelValues(status)
	}
}

// observeTask records the terminal outcome of one task.
func observeTask(agentType, status string, seconds float64) {
	tasksTotal.WithLabelValues(agentType, status).Inc()
	taskDuration.WithLabelValues(agentType).Observe(seconds)
}
