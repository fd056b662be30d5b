package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
)

// ConnectionTestInput addresses the connection test of a session.
type ConnectionTestInput struct {
	SessionID string `json:"session_id"`
	// Wait blocks until the probe settles.
	Wait bool `json:"wait,omitempty"`
}

type connectionService interface {
	StartConnectionTest(ctx context.Context, id string, wait bool) (bool, error)
}

// StartConnectionTestCommand triggers the probe. A request while a test is
// already running is ignored.
type StartConnectionTestCommand struct {
	service   connectionService
	telemetry Telemetry
}

// NewStartConnectionTestCommand creates a command instance.
func NewStartConnectionTestCommand(service connectionService, telemetry Telemetry) *StartConnectionTestCommand {
	return &StartConnectionTestCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ConnectionTestInput] = (*StartConnectionTestCommand)(nil)

func (c *StartConnectionTestCommand) Execute(ctx context.Context, msg ConnectionTestInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	started, err := c.service.StartConnectionTest(ctx, msg.SessionID, msg.Wait)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "onboarding.command.connection_test", map[string]any{
		"session_id": msg.SessionID,
		"started":    started,
	})
	return nil
}

type retryService interface {
	RetryConnectionTest(ctx context.Context, id string) error
}

// RetryConnectionTestCommand resets a failed test to idle.
type RetryConnectionTestCommand struct {
	service   retryService
	telemetry Telemetry
}

// NewRetryConnectionTestCommand creates a command instance.
func NewRetryConnectionTestCommand(service retryService, telemetry Telemetry) *RetryConnectionTestCommand {
	return &RetryConnectionTestCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ConnectionTestInput] = (*RetryConnectionTestCommand)(nil)

func (c *RetryConnectionTestCommand) Execute(ctx context.Context, msg ConnectionTestInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	if err := c.service.RetryConnectionTest(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "onboarding.command.connection_retry", map[string]any{"session_id": msg.SessionID})
	return nil
}

type assistanceService interface {
	RequestAssistance(ctx context.Context, id string) error
}

// RequestAssistanceCommand escalates a failed test.
type RequestAssistanceCommand struct {
	service   assistanceService
	telemetry Telemetry
}

// NewRequestAssistanceCommand creates a command instance.
func NewRequestAssistanceCommand(service assistanceService, telemetry Telemetry) *RequestAssistanceCommand {
	return &RequestAssistanceCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ConnectionTestInput] = (*RequestAssistanceCommand)(nil)

func (c *RequestAssistanceCommand) Execute(ctx context.Context, msg ConnectionTestInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	if err := c.service.RequestAssistance(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "onboarding.command.assistance", map[string]any{"session_id": msg.SessionID})
	return nil
}
