package usersink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-evcharger/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []types.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := Hook{Sink: sink}

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()
	draftID := uuid.New().String()

	event := activity.Event{
		Verb:           "onboarding.published",
		ActorID:        actorID.String(),
		UserID:         actorID.String(),
		TenantID:       tenantID.String(),
		ObjectType:     "charger",
		ObjectID:       draftID,
		Channel:        "onboarding",
		DefinitionCode: "charger:onboarded",
		Recipients:     []string{"ops@example.com"},
		Metadata: map[string]any{
			"serial_number": "SN123",
		},
		OccurredAt: now,
	}

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.TenantID != tenantID {
		t.Fatalf("expected tenant %s got %s", tenantID, record.TenantID)
	}
	if record.Verb != "onboarding.published" || record.ObjectType != "charger" || record.ObjectID != draftID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "onboarding" {
		t.Fatalf("expected channel onboarding got %q", record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["definition_code"] != "charger:onboarded" {
		t.Fatalf("expected definition_code metadata got %v", record.Data["definition_code"])
	}
	if record.Data["serial_number"] != "SN123" {
		t.Fatalf("expected serial metadata got %v", record.Data["serial_number"])
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "ops@example.com" {
		t.Fatalf("expected recipients metadata got %v", record.Data["recipients"])
	}
}

func TestHookNotifyInvalidUUIDsBecomeNil(t *testing.T) {
	sink := &recordingSink{}
	hook := Hook{Sink: sink}
	_ = hook.Notify(context.Background(), activity.Event{Verb: "v", ActorID: "installer-7"})
	if len(sink.records) != 1 || sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected nil actor for non-uuid id")
	}
}

func TestHookNotifyWrapsSinkError(t *testing.T) {
	boom := errors.New("db down")
	hook := Hook{Sink: &recordingSink{err: boom}}
	err := hook.Notify(context.Background(), activity.Event{Verb: "v"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped sink error, got %v", err)
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}
