package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTelemetry) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

type recordingHook struct {
	mu     sync.Mutex
	events []Event
}

func (h *recordingHook) WizardUpdated(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHook) kinds() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Kind)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func newTestWizard(t *testing.T, opts Options) *Wizard {
	t.Helper()
	if opts.Probe == nil {
		opts.Probe = NewSimulatedProbe(0)
	}
	w := NewWizard(opts)
	t.Cleanup(w.Close)
	return w
}

func fillIdentify(t *testing.T, w *Wizard) {
	t.Helper()
	_, err := w.Update(context.Background(), Patch{Charger: &ChargerPatch{
		Name:         ptr("Garage"),
		SerialNumber: ptr("SN-001"),
		PIN:          ptr("4821"),
		ImageRefs:    ptr([]string{"photo-1.jpg"}),
	}})
	if err != nil {
		t.Fatalf("fill identify: %v", err)
	}
}

func mustNext(t *testing.T, w *Wizard) Transition {
	t.Helper()
	tr, err := w.Next(context.Background())
	if err != nil {
		t.Fatalf("Next from %s: %v", w.Step(), err)
	}
	return tr
}

// walkToSummary drives a wizard through every step, passing the connection
// test on the second attempt.
func walkToSummary(t *testing.T, w *Wizard) {
	t.Helper()
	ctx := context.Background()
	fillIdentify(t, w)
	mustNext(t, w)
	mustNext(t, w)
	runConnectionTest(t, w)
	if err := w.RetryConnectionTest(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if state := runConnectionTest(t, w); state.Status != ConnectionSuccess {
		t.Fatalf("expected success on retry, got %s", state.Status)
	}
	if w.Step() != StepLocation {
		t.Fatalf("expected auto advance to location, got %s", w.Step())
	}
	mustNext(t, w)
	mustNext(t, w)
	mustNext(t, w)
	if w.Step() != StepSummary {
		t.Fatalf("expected summary, got %s", w.Step())
	}
}

func runConnectionTest(t *testing.T, w *Wizard) ConnectionState {
	t.Helper()
	if !w.StartConnectionTest(context.Background()) {
		t.Fatalf("expected connection test to start")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, err := w.AwaitConnectionTest(ctx)
	if err != nil {
		t.Fatalf("await connection test: %v", err)
	}
	return state
}

func TestNewWizardStartsOnIdentify(t *testing.T) {
	w := newTestWizard(t, Options{Network: NetworkProfile{ServerURL: "wss://ocpp.example.com", StationID: "st-1"}})
	if w.Step() != StepIdentify {
		t.Fatalf("expected step 1, got %d", w.Step())
	}
	if w.ID() == "" || w.DraftID() == "" {
		t.Fatalf("expected generated ids")
	}
	draft := w.Draft()
	if draft.Network.ServerURL != "wss://ocpp.example.com" {
		t.Fatalf("expected network profile in draft, got %+v", draft.Network)
	}
	if draft.Location != DefaultFallbackLocation {
		t.Fatalf("expected fallback location, got %+v", draft.Location)
	}
	if draft.Commercialization.Mode != ModePrivate || draft.OperationalDetails.PricingModel != PricingPerEnergy {
		t.Fatalf("unexpected defaults: %+v", draft)
	}
}

func TestNewWizardIgnoresInvalidFallback(t *testing.T) {
	w := newTestWizard(t, Options{Fallback: &LocationSection{Coordinates: Coordinates{Latitude: 123}}})
	if w.Draft().Location != DefaultFallbackLocation {
		t.Fatalf("expected package fallback for out of range coordinates")
	}
}

func TestNextBlockedUntilIdentifyComplete(t *testing.T) {
	w := newTestWizard(t, Options{})
	_, err := w.Next(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Step != StepIdentify || len(verr.Issues) != 4 {
		t.Fatalf("expected four identify issues, got %+v", verr)
	}
	if w.Step() != StepIdentify {
		t.Fatalf("step must not change on a failed gate")
	}

	_, err = w.Update(context.Background(), Patch{Charger: &ChargerPatch{
		Name:         ptr("   "),
		SerialNumber: ptr("SN-001"),
		PIN:          ptr("1234"),
		ImageRefs:    ptr([]string{" ", "a.jpg"}),
	}})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if w.CanAdvance() {
		t.Fatalf("whitespace name must not pass the gate")
	}
	if got := w.Draft().Charger.ImageRefs; len(got) != 1 || got[0] != "a.jpg" {
		t.Fatalf("expected blank refs dropped, got %v", got)
	}
}

func TestIdentifyWithoutPhotoWhenPolicyAllows(t *testing.T) {
	policy := DefaultPolicy()
	policy.RequirePhoto = false
	w := newTestWizard(t, Options{Policy: &policy})
	_, err := w.Update(context.Background(), Patch{Charger: &ChargerPatch{
		Name:         ptr("Garage"),
		SerialNumber: ptr("SN-1"),
		PIN:          ptr("0000"),
	}})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if tr := mustNext(t, w); tr.To != StepNetwork {
		t.Fatalf("expected network step, got %+v", tr)
	}
}

func TestBackAndNextStayInBounds(t *testing.T) {
	w := newTestWizard(t, Options{})
	fillIdentify(t, w)
	mustNext(t, w)
	tr, err := w.Back(context.Background())
	if err != nil {
		t.Fatalf("Back returned error: %v", err)
	}
	if tr.From != StepNetwork || tr.To != StepIdentify || tr.Exited {
		t.Fatalf("unexpected transition %+v", tr)
	}
}

func TestNextOnSummaryIsNoop(t *testing.T) {
	w := newTestWizard(t, Options{})
	walkToSummary(t, w)
	tr := mustNext(t, w)
	if tr.Moved() || w.Step() != StepSummary {
		t.Fatalf("expected no-op on summary, got %+v", tr)
	}
}

func TestBackFromFirstStepExits(t *testing.T) {
	exited := false
	hook := &recordingHook{}
	w := newTestWizard(t, Options{
		Hook: hook,
		Handlers: Handlers{OnExit: func(context.Context) error {
			exited = true
			return nil
		}},
	})
	fillIdentify(t, w)
	tr, err := w.Back(context.Background())
	if err != nil {
		t.Fatalf("Back returned error: %v", err)
	}
	if !tr.Exited || !exited {
		t.Fatalf("expected exit handler to run, transition %+v", tr)
	}
	if !w.Closed() {
		t.Fatalf("expected wizard closed after exit")
	}
	if w.Draft().Charger.Name != "" {
		t.Fatalf("expected draft discarded")
	}
	if _, err := w.Next(context.Background()); !errors.Is(err, ErrWizardClosed) {
		t.Fatalf("expected ErrWizardClosed, got %v", err)
	}
	kinds := hook.kinds()
	if kinds[len(kinds)-1] != EventExited {
		t.Fatalf("expected exited event last, got %v", kinds)
	}
}

func TestUpdateRejectsBadValuesWithoutChangingDraft(t *testing.T) {
	w := newTestWizard(t, Options{})
	before := w.Draft()
	_, err := w.Update(context.Background(), Patch{Location: &LocationPatch{
		Coordinates: &Coordinates{Latitude: 91, Longitude: 0},
		DisplayName: ptr("Nowhere"),
	}})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Step != StepLocation {
		t.Fatalf("expected location validation error, got %v", err)
	}
	if verr.Issues[0].Code != IssueOutOfRange {
		t.Fatalf("expected out_of_range, got %+v", verr.Issues)
	}
	if after := w.Draft(); after.Location != before.Location {
		t.Fatalf("draft changed on rejected patch: %+v", after.Location)
	}
}

func TestSetCommercializationWarnsOnExistingCharger(t *testing.T) {
	w := newTestWizard(t, Options{Accounts: accountsStub{count: 2}})
	notice, err := w.SetCommercialization(context.Background(), ModeCommercial)
	if err != nil {
		t.Fatalf("SetCommercialization returned error: %v", err)
	}
	if notice == nil || notice.Level != NoticeWarning || notice.Code != "commercial_charger_exists" {
		t.Fatalf("expected warning notice, got %+v", notice)
	}
	if w.Draft().Commercialization.Mode != ModeCommercial {
		t.Fatalf("expected the choice to be kept")
	}
	if len(w.Snapshot().Notices) != 1 {
		t.Fatalf("expected notice in snapshot")
	}
}

func TestSetCommercializationIgnoresLookupFailure(t *testing.T) {
	w := newTestWizard(t, Options{Accounts: accountsStub{err: errors.New("offline")}})
	notice, err := w.SetCommercialization(context.Background(), ModeCommercial)
	if err != nil || notice != nil {
		t.Fatalf("expected silent success, got %+v, %v", notice, err)
	}
}

func TestSetCommercializationRejectsUnknownMode(t *testing.T) {
	w := newTestWizard(t, Options{})
	if _, err := w.SetCommercialization(context.Background(), CommercialMode("fleet")); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestOpenAggregatorLinkOnlyOnCommercialization(t *testing.T) {
	w := newTestWizard(t, Options{AggregatorURL: "https://aggregator.example.com"})
	if _, err := w.OpenAggregatorLink(context.Background()); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("expected ErrWrongStep, got %v", err)
	}
	walkToSummary(t, w)
	if _, err := w.Back(context.Background()); err != nil {
		t.Fatalf("back: %v", err)
	}
	if _, err := w.Back(context.Background()); err != nil {
		t.Fatalf("back: %v", err)
	}
	notice, err := w.OpenAggregatorLink(context.Background())
	if err != nil {
		t.Fatalf("OpenAggregatorLink returned error: %v", err)
	}
	if notice == nil || notice.Message != "Manage commercial chargers at https://aggregator.example.com" {
		t.Fatalf("unexpected notice %+v", notice)
	}
}

func TestTelemetryRecordsForwardSteps(t *testing.T) {
	telemetry := &recordingTelemetry{}
	w := newTestWizard(t, Options{Telemetry: telemetry})
	walkToSummary(t, w)
	if got := telemetry.count("onboarding.step.next"); got != TotalSteps-1 {
		t.Fatalf("expected %d forward steps recorded, got %d", TotalSteps-1, got)
	}
	if got := telemetry.count("onboarding.connection.completed"); got != 2 {
		t.Fatalf("expected two completed probes, got %d", got)
	}
}

func TestSnapshotReflectsGate(t *testing.T) {
	w := newTestWizard(t, Options{})
	view := w.Snapshot()
	if view.CanAdvance || len(view.Issues) == 0 {
		t.Fatalf("expected blocked snapshot, got %+v", view)
	}
	if view.StepSlug != "identify-charger" || view.TotalSteps != 7 {
		t.Fatalf("unexpected step info %s/%d", view.StepSlug, view.TotalSteps)
	}
	fillIdentify(t, w)
	view = w.Snapshot()
	if !view.CanAdvance || len(view.Issues) != 0 {
		t.Fatalf("expected open gate, got %+v", view.Issues)
	}
}

type accountsStub struct {
	count int
	err   error
}

func (a accountsStub) CommercialChargerCount(context.Context) (int, error) {
	return a.count, a.err
}
