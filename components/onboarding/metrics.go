package onboarding

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "evcharger_onboarding_"

// PrometheusTelemetry exports wizard telemetry as Prometheus counters.
type PrometheusTelemetry struct {
	events      *prometheus.CounterVec
	steps       *prometheus.CounterVec
	connections *prometheus.CounterVec
	submissions *prometheus.CounterVec
}

// NewPrometheusTelemetry registers the onboarding collectors on reg. A nil
// registerer uses the default registry.
func NewPrometheusTelemetry(reg prometheus.Registerer) (*PrometheusTelemetry, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	t := &PrometheusTelemetry{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_total",
				Help: "Wizard telemetry events by name",
			},
			[]string{"event"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "steps_reached_total",
				Help: "Forward transitions by destination step",
			},
			[]string{"step"},
		),
		connections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "connection_tests_total",
				Help: "Completed connection tests by status",
			},
			[]string{"status"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "submissions_total",
				Help: "Submissions by outcome",
			},
			[]string{"outcome"},
		),
	}
	for _, c := range []prometheus.Collector{t.events, t.steps, t.connections, t.submissions} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("onboarding: register metrics: %w", err)
		}
	}
	return t, nil
}

func (t *PrometheusTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	t.events.WithLabelValues(event).Inc()
	switch event {
	case "onboarding.step.next":
		if to, ok := payload["to"].(int); ok {
			t.steps.WithLabelValues(Step(to).Slug()).Inc()
		}
	case "onboarding.connection.completed":
		if status, ok := payload["status"].(string); ok {
			t.connections.WithLabelValues(status).Inc()
		}
	case "onboarding.submitted":
		if outcome, ok := payload["outcome"].(string); ok {
			t.submissions.WithLabelValues(outcome).Inc()
		}
	}
}
