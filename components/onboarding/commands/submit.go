package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-evcharger/components/onboarding"
)

// SubmitInput publishes the payload of a session on the summary step.
type SubmitInput struct {
	SessionID string `json:"session_id"`
}

type submitService interface {
	Submit(ctx context.Context, id string) (onboarding.SubmitResult, error)
}

// SubmitCommand wraps Service.Submit. The result is kept on the wizard and
// read back through the state query.
type SubmitCommand struct {
	service   submitService
	telemetry Telemetry
}

// NewSubmitCommand creates a command instance.
func NewSubmitCommand(service submitService, telemetry Telemetry) *SubmitCommand {
	return &SubmitCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SubmitInput] = (*SubmitCommand)(nil)

func (c *SubmitCommand) Execute(ctx context.Context, msg SubmitInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	result, err := c.service.Submit(ctx, msg.SessionID)
	c.telemetry.Record(ctx, "onboarding.command.submit", map[string]any{
		"session_id": msg.SessionID,
		"outcome":    string(result.Outcome),
	})
	return err
}
