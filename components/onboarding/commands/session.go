package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-evcharger/components/onboarding"
)

var errServiceRequired = errors.New("onboarding command requires service")

type startService interface {
	Start(ctx context.Context, req onboarding.StartRequest) (*onboarding.Wizard, error)
}

// StartWizardCommand opens a session. Callers choose the session id up front
// so they can query the new state afterwards.
type StartWizardCommand struct {
	service   startService
	telemetry Telemetry
}

// NewStartWizardCommand creates a command instance.
func NewStartWizardCommand(service startService, telemetry Telemetry) *StartWizardCommand {
	return &StartWizardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[onboarding.StartRequest] = (*StartWizardCommand)(nil)

func (c *StartWizardCommand) Execute(ctx context.Context, msg onboarding.StartRequest) error {
	if c.service == nil {
		return errServiceRequired
	}
	wizard, err := c.service.Start(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "onboarding.command.start", map[string]any{
		"session_id": wizard.ID(),
	})
	return nil
}

// CloseWizardInput discards a session.
type CloseWizardInput struct {
	SessionID string `json:"session_id"`
}

type closeService interface {
	Close(ctx context.Context, id string) error
}

// CloseWizardCommand cancels pending work and drops the draft.
type CloseWizardCommand struct {
	service   closeService
	telemetry Telemetry
}

// NewCloseWizardCommand creates a command instance.
func NewCloseWizardCommand(service closeService, telemetry Telemetry) *CloseWizardCommand {
	return &CloseWizardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CloseWizardInput] = (*CloseWizardCommand)(nil)

func (c *CloseWizardCommand) Execute(ctx context.Context, msg CloseWizardInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	if err := c.service.Close(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "onboarding.command.close", map[string]any{"session_id": msg.SessionID})
	return nil
}
