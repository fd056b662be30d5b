package onboarding

import (
	"context"
	"errors"
)

// Event kinds emitted by the wizard.
const (
	EventStepChanged       = "step_changed"
	EventDraftUpdated      = "draft_updated"
	EventConnectionChanged = "connection_changed"
	EventNotice            = "notice"
	EventSubmitted         = "submitted"
	EventExited            = "exited"
	EventClosed            = "closed"
)

type noopEventHook struct{}

func (noopEventHook) WizardUpdated(context.Context, Event) error { return nil }

// MultiHook fans an event out to several hooks and joins their errors.
type MultiHook []EventHook

func (m MultiHook) WizardUpdated(ctx context.Context, event Event) error {
	var errs []error
	for _, hook := range m {
		if hook == nil {
			continue
		}
		if err := hook.WizardUpdated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func normalizeHook(h EventHook) EventHook {
	if h == nil {
		return noopEventHook{}
	}
	return h
}
