package onboarding

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Options configures a Wizard. Nil collaborators fall back to noop or default
// implementations.
type Options struct {
	SessionID string
	Locale    string
	Policy    *Policy
	Handlers  Handlers

	// Probe is used as is; NewProbe builds one per wizard when Probe is nil.
	Probe        ConnectionProbe
	NewProbe     func() ConnectionProbe
	Publisher    Publisher
	Geocoder     Geocoder
	Accounts     AccountInspector
	Validator    PayloadValidator
	Hook         EventHook
	Telemetry    Telemetry
	Translations TranslationService
	Logger       logr.Logger

	Network        NetworkProfile
	Fallback       *LocationSection
	SupportContact string
	AggregatorURL  string

	Now func() time.Time
}

// Wizard drives one onboarding session. All methods are safe for concurrent
// use; the step and validation logic never blocks.
type Wizard struct {
	id      string
	draftID string
	locale  string

	policy       Policy
	handlers     Handlers
	probe        ConnectionProbe
	publisher    Publisher
	geocoder     Geocoder
	accounts     AccountInspector
	validator    PayloadValidator
	hook         EventHook
	telemetry    Telemetry
	translations TranslationService
	logger       logr.Logger

	supportContact string
	aggregatorURL  string
	now            func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	step       Step
	draft      Draft
	conn       connectionState
	notices    []Notice
	submitting bool
	result     *SubmitResult
	closed     bool
}

// NewWizard constructs a wizard positioned on step 1 with a fresh draft.
func NewWizard(opts Options) *Wizard {
	policy := DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	fallback := DefaultFallbackLocation
	if opts.Fallback != nil {
		fallback = *opts.Fallback
	}
	id := strings.TrimSpace(opts.SessionID)
	if id == "" {
		id = uuid.NewString()
	}
	probe := opts.Probe
	if probe == nil && opts.NewProbe != nil {
		probe = opts.NewProbe()
	}
	if probe == nil {
		probe = NewSimulatedProbe(DefaultProbeTimeout)
	}
	validator := opts.Validator
	if validator == nil {
		validator = NewJSONSchemaValidator()
	}
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Wizard{
		id:             id,
		draftID:        uuid.NewString(),
		locale:         opts.Locale,
		policy:         policy,
		handlers:       opts.Handlers,
		probe:          probe,
		publisher:      opts.Publisher,
		geocoder:       opts.Geocoder,
		accounts:       opts.Accounts,
		validator:      validator,
		hook:           normalizeHook(opts.Hook),
		telemetry:      normalizeTelemetry(opts.Telemetry),
		translations:   opts.Translations,
		logger:         logger.WithValues("session", id),
		supportContact: opts.SupportContact,
		aggregatorURL:  opts.AggregatorURL,
		now:            now,
		ctx:            ctx,
		cancel:         cancel,
		step:           StepIdentify,
		draft:          NewDraft(opts.Network, fallback),
		conn:           connectionState{status: ConnectionIdle},
	}
}

// ID returns the session identifier.
func (w *Wizard) ID() string { return w.id }

// DraftID identifies the payload this wizard will publish. It doubles as the
// idempotency key of the publish request.
func (w *Wizard) DraftID() string { return w.draftID }

// Policy returns the policy the wizard was built with.
func (w *Wizard) Policy() Policy { return w.policy }

// Locale returns the viewer locale.
func (w *Wizard) Locale() string { return w.locale }

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns a copy of the current draft.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Clone()
}

// Closed reports whether the wizard was closed or exited.
func (w *Wizard) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// CanAdvance reports whether the current step gate passes.
func (w *Wizard) CanAdvance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return CanAdvance(w.gateInputLocked(), w.step)
}

// Issues lists what blocks the current step.
func (w *Wizard) Issues() []FieldIssue {
	w.mu.Lock()
	defer w.mu.Unlock()
	return StepIssues(w.gateInputLocked(), w.step)
}

// Next moves forward one step when the gate passes. Next on the summary step
// is a no-op.
func (w *Wizard) Next(ctx context.Context) (Transition, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Transition{}, ErrWizardClosed
	}
	from := w.step
	if from == StepSummary {
		w.mu.Unlock()
		return Transition{From: from, To: from}, nil
	}
	if issues := StepIssues(w.gateInputLocked(), from); len(issues) > 0 {
		w.mu.Unlock()
		return Transition{From: from, To: from}, newValidationError(from, issues...)
	}
	w.step = from.next()
	transition := Transition{From: from, To: w.step}
	event := w.eventLocked(EventStepChanged)
	w.mu.Unlock()

	w.dispatch(ctx, event)
	w.telemetry.Record(ctx, "onboarding.step.next", transitionPayload(w.id, transition))
	return transition, nil
}

// Back moves to the previous step. From step 1 it leaves the wizard: the
// exit handler runs and the draft is discarded.
func (w *Wizard) Back(ctx context.Context) (Transition, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Transition{}, ErrWizardClosed
	}
	from := w.step
	if from == StepIdentify {
		w.closeLocked()
		event := w.eventLocked(EventExited)
		w.mu.Unlock()

		transition := Transition{From: from, To: from, Exited: true}
		w.dispatch(ctx, event)
		w.telemetry.Record(ctx, "onboarding.exited", transitionPayload(w.id, transition))
		if w.handlers.OnExit != nil {
			if err := w.handlers.OnExit(ctx); err != nil {
				return transition, fmt.Errorf("onboarding: exit handler: %w", err)
			}
		}
		return transition, nil
	}
	w.step = from.prev()
	transition := Transition{From: from, To: w.step}
	event := w.eventLocked(EventStepChanged)
	w.mu.Unlock()

	w.dispatch(ctx, event)
	w.telemetry.Record(ctx, "onboarding.step.back", transitionPayload(w.id, transition))
	return transition, nil
}

// Update applies a typed patch to the draft.
func (w *Wizard) Update(ctx context.Context, patch Patch) (Draft, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Draft{}, ErrWizardClosed
	}
	next, err := ApplyPatch(w.draft, patch)
	if err != nil {
		w.mu.Unlock()
		return w.Draft(), err
	}
	w.draft = next
	out := next.Clone()
	event := w.eventLocked(EventDraftUpdated)
	w.mu.Unlock()

	w.dispatch(ctx, event)
	return out, nil
}

// AddImage appends a client-local image reference to the charger photos.
func (w *Wizard) AddImage(ctx context.Context, ref string) (Draft, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Draft{}, newValidationError(StepIdentify, FieldIssue{Field: "charger.imageRefs", Code: IssueRequired, Message: "image reference is required"})
	}
	w.mu.Lock()
	refs := append(append([]string{}, w.draft.Charger.ImageRefs...), ref)
	w.mu.Unlock()
	return w.Update(ctx, Patch{Charger: &ChargerPatch{ImageRefs: &refs}})
}

// RemoveImage drops every occurrence of ref from the charger photos.
func (w *Wizard) RemoveImage(ctx context.Context, ref string) (Draft, error) {
	ref = strings.TrimSpace(ref)
	w.mu.Lock()
	refs := make([]string, 0, len(w.draft.Charger.ImageRefs))
	for _, existing := range w.draft.Charger.ImageRefs {
		if existing != ref {
			refs = append(refs, existing)
		}
	}
	w.mu.Unlock()
	return w.Update(ctx, Patch{Charger: &ChargerPatch{ImageRefs: &refs}})
}

// SetCommercialization stores the mode. Choosing commercial while the account
// already owns a commercial charger only produces a warning notice.
func (w *Wizard) SetCommercialization(ctx context.Context, mode CommercialMode) (*Notice, error) {
	if _, err := w.Update(ctx, Patch{Commercialization: &CommercialPatch{Mode: &mode}}); err != nil {
		return nil, err
	}
	if mode != ModeCommercial || w.accounts == nil {
		return nil, nil
	}
	count, err := w.accounts.CommercialChargerCount(ctx)
	if err != nil {
		w.logger.Error(err, "commercial charger lookup failed")
		return nil, nil
	}
	if count == 0 {
		return nil, nil
	}
	notice := Notice{
		Level:   NoticeWarning,
		Code:    "commercial_charger_exists",
		Message: fmt.Sprintf("This account already has %d commercial charger(s). Consider an aggregator to manage several commercial chargers.", count),
	}
	notice = w.notify(ctx, notice)
	return &notice, nil
}

// OpenAggregatorLink offers external management of several commercial
// chargers. It is only available on the commercialization step.
func (w *Wizard) OpenAggregatorLink(ctx context.Context) (*Notice, error) {
	w.mu.Lock()
	closed, step := w.closed, w.step
	w.mu.Unlock()
	if closed {
		return nil, ErrWizardClosed
	}
	if step != StepCommercialization {
		return nil, ErrWrongStep
	}
	w.telemetry.Record(ctx, "onboarding.aggregator.opened", map[string]any{"session_id": w.id})
	if w.handlers.OnAggregatorLink != nil {
		if err := w.handlers.OnAggregatorLink(ctx); err != nil {
			return nil, fmt.Errorf("onboarding: aggregator handler: %w", err)
		}
		return nil, nil
	}
	notice := w.notify(ctx, Notice{
		Level:   NoticeInfo,
		Code:    "aggregator_link",
		Message: "Manage commercial chargers at " + w.aggregatorURL,
	})
	return &notice, nil
}

// Close cancels any pending probe or submission and discards the draft.
func (w *Wizard) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closeLocked()
	event := w.eventLocked(EventClosed)
	w.mu.Unlock()
	w.dispatch(context.Background(), event)
}

// discard releases a wizard that was never registered. No event is
// published since its id may belong to another live wizard.
func (w *Wizard) discard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closeLocked()
	}
}

func (w *Wizard) closeLocked() {
	w.closed = true
	w.cancel()
	w.probe.Cancel()
	w.draft = Draft{}
	w.notices = nil
}

func (w *Wizard) gateInputLocked() GateInput {
	return GateInput{Draft: w.draft, Connection: w.conn.status, Policy: w.policy}
}

func (w *Wizard) eventLocked(kind string) Event {
	return Event{SessionID: w.id, Kind: kind, Step: w.step, At: w.now()}
}

// notify localizes and records a notice, then publishes it.
func (w *Wizard) notify(ctx context.Context, notice Notice) Notice {
	notice = localizeNotice(ctx, w.translations, w.locale, notice)
	w.mu.Lock()
	w.notices = append(w.notices, notice)
	event := w.eventLocked(EventNotice)
	w.mu.Unlock()
	event.Notice = &notice
	w.dispatch(ctx, event)
	return notice
}

func (w *Wizard) dispatch(ctx context.Context, events ...Event) {
	for _, event := range events {
		if err := w.hook.WizardUpdated(ctx, event); err != nil {
			w.logger.Error(err, "event hook failed", "kind", event.Kind)
		}
	}
}

func transitionPayload(id string, t Transition) map[string]any {
	return map[string]any{
		"session_id": id,
		"from":       int(t.From),
		"to":         int(t.To),
		"exited":     t.Exited,
	}
}
