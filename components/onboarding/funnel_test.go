package onboarding

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunnelTelemetryCounts(t *testing.T) {
	funnel := NewFunnelTelemetry()
	ctx := context.Background()
	funnel.Record(ctx, "onboarding.session.started", map[string]any{"session_id": "a"})
	funnel.Record(ctx, "onboarding.session.started", map[string]any{"session_id": "b"})
	funnel.Record(ctx, "onboarding.step.next", map[string]any{"to": int(StepNetwork)})
	funnel.Record(ctx, "onboarding.exited", map[string]any{})
	funnel.Record(ctx, "onboarding.submitted", map[string]any{"outcome": string(OutcomePublished)})

	counts := funnel.Counts()
	assert.Equal(t, 2, counts.Started)
	assert.Equal(t, 2, counts.Reached[StepIdentify])
	assert.Equal(t, 1, counts.Reached[StepNetwork])
	assert.Equal(t, 1, counts.Exited)
	assert.Equal(t, 1, counts.Outcomes[OutcomePublished])

	counts.Reached[StepIdentify] = 99
	assert.Equal(t, 2, funnel.Counts().Reached[StepIdentify], "counts must be a copy")
}

func TestFunnelRenderChart(t *testing.T) {
	funnel := NewFunnelTelemetry()
	funnel.Record(context.Background(), "onboarding.session.started", nil)
	html, err := funnel.RenderChart("en")
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, "Identify your charger"), "expected step titles on the axis")
}

func TestPrometheusTelemetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	telemetry, err := NewPrometheusTelemetry(reg)
	require.NoError(t, err)

	ctx := context.Background()
	telemetry.Record(ctx, "onboarding.step.next", map[string]any{"to": int(StepLocation)})
	telemetry.Record(ctx, "onboarding.connection.completed", map[string]any{"status": string(ConnectionFailed)})
	telemetry.Record(ctx, "onboarding.submitted", map[string]any{"outcome": string(OutcomePublished)})
	telemetry.Record(ctx, "onboarding.submitted", map[string]any{"outcome": string(OutcomePublished)})

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, label := range m.GetLabel() {
				key += "|" + label.GetValue()
			}
			values[key] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, values[metricPrefix+"steps_reached_total|location"])
	assert.Equal(t, 1.0, values[metricPrefix+"connection_tests_total|failed"])
	assert.Equal(t, 2.0, values[metricPrefix+"submissions_total|published"])
	assert.Equal(t, 2.0, values[metricPrefix+"events_total|onboarding.submitted"])

	_, err = NewPrometheusTelemetry(reg)
	assert.Error(t, err, "registering twice must fail")
}
