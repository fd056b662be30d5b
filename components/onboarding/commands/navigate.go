package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-evcharger/components/onboarding"
)

// AdvanceInput moves a session forward one step.
type AdvanceInput struct {
	SessionID string `json:"session_id"`
}

type advanceService interface {
	Next(ctx context.Context, id string) (onboarding.Transition, error)
}

// AdvanceCommand wraps Service.Next. A blocked gate surfaces as the
// *onboarding.ValidationError returned by the wizard.
type AdvanceCommand struct {
	service   advanceService
	telemetry Telemetry
}

// NewAdvanceCommand creates a command instance.
func NewAdvanceCommand(service advanceService, telemetry Telemetry) *AdvanceCommand {
	return &AdvanceCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AdvanceInput] = (*AdvanceCommand)(nil)

func (c *AdvanceCommand) Execute(ctx context.Context, msg AdvanceInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	t, err := c.service.Next(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "onboarding.command.next", map[string]any{
		"session_id": msg.SessionID,
		"to":         int(t.To),
	})
	return nil
}

// BackInput moves a session back one step, or exits from step 1.
type BackInput struct {
	SessionID string `json:"session_id"`
}

type backService interface {
	Back(ctx context.Context, id string) (onboarding.Transition, error)
}

// BackCommand wraps Service.Back.
type BackCommand struct {
	service   backService
	telemetry Telemetry
}

// NewBackCommand creates a command instance.
func NewBackCommand(service backService, telemetry Telemetry) *BackCommand {
	return &BackCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[BackInput] = (*BackCommand)(nil)

func (c *BackCommand) Execute(ctx context.Context, msg BackInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	t, err := c.service.Back(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "onboarding.command.back", map[string]any{
		"session_id": msg.SessionID,
		"to":         int(t.To),
		"exited":     t.Exited,
	})
	return nil
}
