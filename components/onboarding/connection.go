package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Diagnostics explains a failed connection test.
type Diagnostics struct {
	TimeoutSeconds  float64   `json:"timeoutSeconds"`
	LastAttemptAt   time.Time `json:"lastAttemptAt"`
	ErrorCode       string    `json:"errorCode"`
	SuggestedAction string    `json:"suggestedAction"`
}

// ConnectionState is a read-only view of the connection test.
type ConnectionState struct {
	Status        ConnectionStatus `json:"status"`
	Attempts      int              `json:"attempts"`
	LastAttemptAt time.Time        `json:"lastAttemptAt,omitempty"`
	Diagnostics   *Diagnostics     `json:"diagnostics,omitempty"`
}

type connectionState struct {
	status        ConnectionStatus
	attempts      int
	lastAttemptAt time.Time
	diagnostics   *Diagnostics
	done          chan struct{}
}

func (c connectionState) view() ConnectionState {
	out := ConnectionState{
		Status:        c.status,
		Attempts:      c.attempts,
		LastAttemptAt: c.lastAttemptAt,
	}
	if c.diagnostics != nil {
		diag := *c.diagnostics
		out.Diagnostics = &diag
	}
	return out
}

// Connection returns the current connection test state.
func (w *Wizard) Connection() ConnectionState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.view()
}

// StartConnectionTest launches the probe from the idle state on the
// connection step. It returns false without starting anything when a test is
// already running, has already succeeded, or failed and was not retried.
func (w *Wizard) StartConnectionTest(ctx context.Context) bool {
	w.mu.Lock()
	if w.closed || w.step != StepConnection || w.conn.status != ConnectionIdle {
		w.mu.Unlock()
		return false
	}
	w.conn.status = ConnectionTesting
	w.conn.attempts++
	w.conn.lastAttemptAt = w.now()
	w.conn.diagnostics = nil
	done := make(chan struct{})
	w.conn.done = done
	attempt := w.conn.attempts
	target := ProbeTarget{
		SerialNumber: w.draft.Charger.SerialNumber,
		ServerURL:    w.draft.Network.ServerURL,
		StationID:    w.draft.Network.StationID,
		Attempt:      attempt,
	}
	results := w.probe.Start(w.ctx, target)
	event := w.eventLocked(EventConnectionChanged)
	w.mu.Unlock()

	w.dispatch(ctx, event)
	w.telemetry.Record(ctx, "onboarding.connection.started", map[string]any{
		"session_id": w.id,
		"attempt":    attempt,
	})
	go w.watchProbe(results, done, attempt)
	return true
}

// AwaitConnectionTest blocks until the running test settles or ctx ends.
func (w *Wizard) AwaitConnectionTest(ctx context.Context) (ConnectionState, error) {
	w.mu.Lock()
	done := w.conn.done
	w.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return w.Connection(), ctx.Err()
		}
	}
	return w.Connection(), nil
}

// RetryConnectionTest resets a failed test to idle.
func (w *Wizard) RetryConnectionTest(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWizardClosed
	}
	if w.conn.status != ConnectionFailed {
		w.mu.Unlock()
		return ErrConnectionNotFailed
	}
	w.conn.status = ConnectionIdle
	w.conn.diagnostics = nil
	event := w.eventLocked(EventConnectionChanged)
	w.mu.Unlock()

	w.dispatch(ctx, event)
	return nil
}

// RequestAssistance escalates a failed test to a human.
func (w *Wizard) RequestAssistance(ctx context.Context) (*Notice, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrWizardClosed
	}
	if w.conn.status != ConnectionFailed || w.conn.diagnostics == nil {
		w.mu.Unlock()
		return nil, ErrConnectionNotFailed
	}
	diag := *w.conn.diagnostics
	w.mu.Unlock()

	w.telemetry.Record(ctx, "onboarding.connection.assistance", map[string]any{
		"session_id": w.id,
		"error_code": diag.ErrorCode,
	})
	if w.handlers.OnAssistance != nil {
		if err := w.handlers.OnAssistance(ctx, diag); err != nil {
			return nil, fmt.Errorf("onboarding: assistance handler: %w", err)
		}
		return nil, nil
	}
	message := "Contact support and quote error " + diag.ErrorCode
	if w.supportContact != "" {
		message += ": " + w.supportContact
	}
	notice := w.notify(ctx, Notice{Level: NoticeWarning, Code: "assistance_requested", Message: message})
	return &notice, nil
}

func (w *Wizard) watchProbe(results <-chan ProbeResult, done chan struct{}, attempt int) {
	result, ok := <-results
	if !ok {
		result = ProbeResult{ErrorCode: ProbeErrorCanceled, Err: context.Canceled}
	}

	w.mu.Lock()
	defer close(done)
	if w.closed || w.conn.attempts != attempt || w.conn.status != ConnectionTesting {
		w.mu.Unlock()
		return
	}
	events := []Event{}
	advanced := false
	if result.OK {
		w.conn.status = ConnectionSuccess
		w.draft.Connection.Verified = true
		events = append(events, w.eventLocked(EventConnectionChanged))
		if w.step == StepConnection {
			w.step = StepLocation
			advanced = true
			events = append(events, w.eventLocked(EventStepChanged))
		}
	} else {
		w.conn.status = ConnectionFailed
		w.conn.diagnostics = diagnosticsFor(result, w.conn.lastAttemptAt)
		events = append(events, w.eventLocked(EventConnectionChanged))
	}
	status := w.conn.status
	w.mu.Unlock()

	ctx := context.Background()
	w.dispatch(ctx, events...)
	payload := map[string]any{
		"session_id": w.id,
		"attempt":    attempt,
		"status":     string(status),
	}
	if !result.OK {
		payload["error_code"] = result.ErrorCode
	}
	w.telemetry.Record(ctx, "onboarding.connection.completed", payload)
	if advanced {
		w.telemetry.Record(ctx, "onboarding.step.next", transitionPayload(w.id, Transition{From: StepConnection, To: StepLocation}))
	}
	if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
		w.logger.Error(result.Err, "connection probe failed", "attempt", attempt)
	}
}

func diagnosticsFor(result ProbeResult, at time.Time) *Diagnostics {
	timeout := result.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	code := result.ErrorCode
	if code == "" {
		code = ProbeErrorTimeout
	}
	action := result.SuggestedAction
	if action == "" {
		action = defaultSuggestedAction
	}
	return &Diagnostics{
		TimeoutSeconds:  timeout.Seconds(),
		LastAttemptAt:   at,
		ErrorCode:       code,
		SuggestedAction: action,
	}
}
