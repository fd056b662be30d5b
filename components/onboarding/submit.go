package onboarding

import (
	"context"
	"strings"
	"time"
)

// Outcome says where a submitted payload went.
type Outcome string

const (
	// OutcomeDelivered: handed to the completion handler.
	OutcomeDelivered Outcome = "delivered"
	// OutcomePublished: accepted by the backend.
	OutcomePublished Outcome = "published"
	// OutcomeFailed: delivery failed, the payload is kept for a manual retry.
	OutcomeFailed Outcome = "failed"
	// OutcomeDisplayed: nothing was sent, the payload is only shown.
	OutcomeDisplayed Outcome = "displayed"
)

// SubmitResult reports one Submit call.
type SubmitResult struct {
	Outcome Outcome         `json:"outcome"`
	Payload Payload         `json:"payload"`
	Receipt *PublishReceipt `json:"receipt,omitempty"`
	Notice  Notice          `json:"notice"`
	Error   string          `json:"error,omitempty"`
	At      time.Time       `json:"at"`
}

// Succeeded reports whether the payload left the wizard.
func (r SubmitResult) Succeeded() bool {
	return r.Outcome == OutcomeDelivered || r.Outcome == OutcomePublished
}

// AssemblePayload builds the immutable snapshot submitted on the summary step.
// Blank labels fall back to their defaults.
func AssemblePayload(draftID string, draft Draft) Payload {
	d := draft.Clone()
	d.Charger.ImageRefs = compactRefs(d.Charger.ImageRefs)
	if strings.TrimSpace(d.OperationalDetails.AvailabilityLabel) == "" {
		d.OperationalDetails.AvailabilityLabel = DefaultAvailabilityLabel
	}
	if strings.TrimSpace(d.OperationalDetails.AccessLabel) == "" {
		d.OperationalDetails.AccessLabel = DefaultAccessLabel
	}
	return Payload{
		DraftID:            draftID,
		Charger:            d.Charger,
		Network:            d.Network,
		Connection:         d.Connection,
		Location:           d.Location,
		Commercialization:  d.Commercialization,
		OperationalDetails: d.OperationalDetails,
	}
}

// Payload assembles the payload for the current draft without submitting it.
func (w *Wizard) Payload() Payload {
	w.mu.Lock()
	defer w.mu.Unlock()
	return AssemblePayload(w.draftID, w.draft)
}

// Submit assembles the payload and hands it to the completion handler, the
// publisher, or neither, depending on handlers and policy. A successful
// submission is remembered: calling Submit again returns the same result
// without side effects. A failed one returns a *SubmissionError and can be
// retried.
func (w *Wizard) Submit(ctx context.Context) (SubmitResult, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return SubmitResult{}, ErrWizardClosed
	}
	if w.step != StepSummary {
		w.mu.Unlock()
		return SubmitResult{}, ErrNotAtSummary
	}
	if w.result != nil && w.result.Succeeded() {
		prior := *w.result
		w.mu.Unlock()
		return prior, nil
	}
	if w.submitting {
		w.mu.Unlock()
		return SubmitResult{}, ErrSubmissionInFlight
	}
	payload := AssemblePayload(w.draftID, w.draft)
	if err := w.validator.Validate(payload); err != nil {
		w.mu.Unlock()
		return SubmitResult{}, err
	}
	w.submitting = true
	w.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(w.ctx, cancel)
	defer stop()

	result, err := w.deliver(subCtx, payload)
	result.At = w.now()
	result.Notice = localizeNotice(ctx, w.translations, w.locale, result.Notice)

	w.mu.Lock()
	w.submitting = false
	closed := w.closed
	if !closed {
		stored := result
		w.result = &stored
		w.notices = append(w.notices, result.Notice)
	}
	event := w.eventLocked(EventSubmitted)
	w.mu.Unlock()

	if closed {
		return result, err
	}
	event.Notice = &result.Notice
	event.Payload = &result.Payload
	event.Outcome = result.Outcome
	w.dispatch(ctx, event)
	w.telemetry.Record(ctx, "onboarding.submitted", map[string]any{
		"session_id": w.id,
		"draft_id":   w.draftID,
		"outcome":    string(result.Outcome),
	})
	return result, err
}

func (w *Wizard) deliver(ctx context.Context, payload Payload) (SubmitResult, error) {
	result := SubmitResult{Payload: payload}
	switch {
	case w.handlers.OnComplete != nil:
		if err := w.handlers.OnComplete(ctx, payload); err != nil {
			return w.failed(result, err)
		}
		result.Outcome = OutcomeDelivered
		result.Notice = Notice{Level: NoticeInfo, Code: "payload_delivered", Message: "Charger details handed over."}
		return result, nil
	case w.policy.AttemptAPIPostOnPublish:
		if w.publisher == nil {
			return w.failed(result, errPublisherUnavailable)
		}
		receipt, err := w.publisher.Publish(ctx, payload)
		if err != nil {
			return w.failed(result, err)
		}
		result.Outcome = OutcomePublished
		result.Receipt = &receipt
		result.Notice = Notice{Level: NoticeInfo, Code: "charger_published", Message: "Charger published."}
		return result, nil
	default:
		result.Outcome = OutcomeDisplayed
		result.Notice = Notice{Level: NoticeInfo, Code: "payload_ready", Message: "Review or print the charger details below."}
		return result, nil
	}
}

func (w *Wizard) failed(result SubmitResult, err error) (SubmitResult, error) {
	w.logger.Error(err, "submission failed", "draft", w.draftID)
	result.Outcome = OutcomeFailed
	result.Error = err.Error()
	result.Notice = Notice{Level: NoticeError, Code: "publish_failed", Message: "Publishing failed. Your details are kept below, try again or print them."}
	return result, &SubmissionError{Payload: result.Payload, Err: err}
}
