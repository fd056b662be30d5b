package onboarding

import (
	"bytes"
	"context"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// FunnelCounts is how many sessions reached each step and how submissions
// ended.
type FunnelCounts struct {
	Started  int             `json:"started"`
	Reached  map[Step]int    `json:"reached"`
	Exited   int             `json:"exited"`
	Outcomes map[Outcome]int `json:"outcomes"`
}

// FunnelTelemetry aggregates wizard telemetry into an onboarding funnel.
type FunnelTelemetry struct {
	mu       sync.Mutex
	started  int
	exited   int
	reached  map[Step]int
	outcomes map[Outcome]int
}

// NewFunnelTelemetry returns an empty funnel.
func NewFunnelTelemetry() *FunnelTelemetry {
	return &FunnelTelemetry{
		reached:  make(map[Step]int),
		outcomes: make(map[Outcome]int),
	}
}

func (f *FunnelTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch event {
	case "onboarding.session.started":
		f.started++
		f.reached[StepIdentify]++
	case "onboarding.step.next":
		if to, ok := payload["to"].(int); ok {
			f.reached[Step(to)]++
		}
	case "onboarding.exited":
		f.exited++
	case "onboarding.submitted":
		if outcome, ok := payload["outcome"].(string); ok {
			f.outcomes[Outcome(outcome)]++
		}
	}
}

// Counts returns a copy of the aggregated numbers.
func (f *FunnelTelemetry) Counts() FunnelCounts {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := FunnelCounts{
		Started:  f.started,
		Exited:   f.exited,
		Reached:  make(map[Step]int, len(f.reached)),
		Outcomes: make(map[Outcome]int, len(f.outcomes)),
	}
	for k, v := range f.reached {
		out.Reached[k] = v
	}
	for k, v := range f.outcomes {
		out.Outcomes[k] = v
	}
	return out
}

// RenderChart draws the funnel as an ECharts bar chart with localized step
// titles and returns the HTML snippet.
func (f *FunnelTelemetry) RenderChart(locale string) (string, error) {
	counts := f.Counts()
	labels := make([]string, 0, TotalSteps)
	data := make([]opts.BarData, 0, TotalSteps)
	for _, def := range StepDefinitions() {
		title := def.TitleForLocale(locale)
		labels = append(labels, title)
		data = append(data, opts.BarData{Name: title, Value: counts.Reached[def.Step]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Onboarding funnel"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros, Width: "100%", Height: "360px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("sessions", data)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
