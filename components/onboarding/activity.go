package onboarding

import (
	"context"

	"github.com/goliatone/go-evcharger/pkg/activity"
)

// Actor identifies who drives a wizard, resolved from the request context.
type Actor struct {
	UserID   string
	TenantID string
}

// ActorResolver extracts the actor from a request context.
type ActorResolver func(ctx context.Context) Actor

// ActivityHook turns submission outcomes into audit events.
type ActivityHook struct {
	Emitter *activity.Emitter
	Actor   ActorResolver
}

var _ EventHook = (*ActivityHook)(nil)

func (h *ActivityHook) WizardUpdated(ctx context.Context, event Event) error {
	if h == nil || !h.Emitter.Enabled() || event.Kind != EventSubmitted || event.Payload == nil {
		return nil
	}
	verb := ""
	switch event.Outcome {
	case OutcomePublished:
		verb = "onboarding.published"
	case OutcomeDelivered:
		verb = "onboarding.delivered"
	case OutcomeFailed:
		verb = "onboarding.publish_failed"
	default:
		return nil
	}
	var actor Actor
	if h.Actor != nil {
		actor = h.Actor(ctx)
	}
	return h.Emitter.Emit(ctx, activity.Event{
		Verb:           verb,
		ActorID:        actor.UserID,
		UserID:         actor.UserID,
		TenantID:       actor.TenantID,
		ObjectType:     "charger",
		ObjectID:       event.Payload.DraftID,
		DefinitionCode: "charger:onboarding",
		Metadata: map[string]any{
			"session_id":    event.SessionID,
			"serial_number": event.Payload.Charger.SerialNumber,
			"mode":          string(event.Payload.Commercialization.Mode),
		},
		OccurredAt: event.At,
	})
}
