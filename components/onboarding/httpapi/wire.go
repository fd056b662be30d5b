package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-evcharger/components/onboarding"
	"github.com/goliatone/go-evcharger/components/onboarding/commands"
	"github.com/goliatone/go-evcharger/components/onboarding/queries"
)

// Executor is the transport-neutral surface of the wizard API. Router
// adapters call it instead of the service.
type Executor interface {
	Start(ctx context.Context, req onboarding.StartRequest) error
	Close(ctx context.Context, input commands.CloseWizardInput) error
	Advance(ctx context.Context, input commands.AdvanceInput) error
	Back(ctx context.Context, input commands.BackInput) error
	Update(ctx context.Context, input commands.UpdateDraftInput) error
	Commercialization(ctx context.Context, input commands.SetCommercializationInput) error
	ConnectionTest(ctx context.Context, input commands.ConnectionTestInput) error
	RetryConnection(ctx context.Context, input commands.ConnectionTestInput) error
	Assistance(ctx context.Context, input commands.ConnectionTestInput) error
	Submit(ctx context.Context, input commands.SubmitInput) error
	State(ctx context.Context, req queries.StateRequest) (onboarding.View, error)
	Places(ctx context.Context, req queries.PlacesRequest) ([]onboarding.Place, error)
	Document(ctx context.Context, req queries.DocumentRequest) (queries.Document, error)
}

var errNotConfigured = errors.New("httpapi: operation not configured")

// CommandExecutor implements Executor with go-command commanders and queriers.
type CommandExecutor struct {
	StartCommander             gocommand.Commander[onboarding.StartRequest]
	CloseCommander             gocommand.Commander[commands.CloseWizardInput]
	AdvanceCommander           gocommand.Commander[commands.AdvanceInput]
	BackCommander              gocommand.Commander[commands.BackInput]
	UpdateCommander            gocommand.Commander[commands.UpdateDraftInput]
	CommercializationCommander gocommand.Commander[commands.SetCommercializationInput]
	ConnectionTestCommander    gocommand.Commander[commands.ConnectionTestInput]
	RetryConnectionCommander   gocommand.Commander[commands.ConnectionTestInput]
	AssistanceCommander        gocommand.Commander[commands.ConnectionTestInput]
	SubmitCommander            gocommand.Commander[commands.SubmitInput]
	StateQuerier               gocommand.Querier[queries.StateRequest, onboarding.View]
	PlacesQuerier              gocommand.Querier[queries.PlacesRequest, []onboarding.Place]
	DocumentQuerier            gocommand.Querier[queries.DocumentRequest, queries.Document]
}

var _ Executor = (*CommandExecutor)(nil)

// NewCommandExecutor wires every command and query to service.
func NewCommandExecutor(service *onboarding.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		StartCommander:             commands.NewStartWizardCommand(service, telemetry),
		CloseCommander:             commands.NewCloseWizardCommand(service, telemetry),
		AdvanceCommander:           commands.NewAdvanceCommand(service, telemetry),
		BackCommander:              commands.NewBackCommand(service, telemetry),
		UpdateCommander:            commands.NewUpdateDraftCommand(service, telemetry),
		CommercializationCommander: commands.NewSetCommercializationCommand(service, telemetry),
		ConnectionTestCommander:    commands.NewStartConnectionTestCommand(service, telemetry),
		RetryConnectionCommander:   commands.NewRetryConnectionTestCommand(service, telemetry),
		AssistanceCommander:        commands.NewRequestAssistanceCommand(service, telemetry),
		SubmitCommander:            commands.NewSubmitCommand(service, telemetry),
		StateQuerier:               queries.NewStateQuery(service),
		PlacesQuerier:              queries.NewPlacesQuery(service),
		DocumentQuerier:            queries.NewDocumentQuery(service),
	}
}

// Handlers returns net/http handlers backed by the same commanders.
func (e *CommandExecutor) Handlers() *Handlers {
	return &Handlers{
		Start:             e.StartCommander,
		Close:             e.CloseCommander,
		Advance:           e.AdvanceCommander,
		Back:              e.BackCommander,
		Update:            e.UpdateCommander,
		Commercialization: e.CommercializationCommander,
		ConnectionTest:    e.ConnectionTestCommander,
		RetryConnection:   e.RetryConnectionCommander,
		Assistance:        e.AssistanceCommander,
		Submit:            e.SubmitCommander,
		State:             e.StateQuerier,
		Places:            e.PlacesQuerier,
		Document:          e.DocumentQuerier,
	}
}

func execute[T any](ctx context.Context, c gocommand.Commander[T], msg T) error {
	if c == nil {
		return errNotConfigured
	}
	return c.Execute(ctx, msg)
}

func query[In, Out any](ctx context.Context, q gocommand.Querier[In, Out], req In) (Out, error) {
	if q == nil {
		var zero Out
		return zero, errNotConfigured
	}
	return q.Query(ctx, req)
}

func (e *CommandExecutor) Start(ctx context.Context, req onboarding.StartRequest) error {
	return execute(ctx, e.StartCommander, req)
}

func (e *CommandExecutor) Close(ctx context.Context, input commands.CloseWizardInput) error {
	return execute(ctx, e.CloseCommander, input)
}

func (e *CommandExecutor) Advance(ctx context.Context, input commands.AdvanceInput) error {
	return execute(ctx, e.AdvanceCommander, input)
}

func (e *CommandExecutor) Back(ctx context.Context, input commands.BackInput) error {
	return execute(ctx, e.BackCommander, input)
}

func (e *CommandExecutor) Update(ctx context.Context, input commands.UpdateDraftInput) error {
	return execute(ctx, e.UpdateCommander, input)
}

func (e *CommandExecutor) Commercialization(ctx context.Context, input commands.SetCommercializationInput) error {
	return execute(ctx, e.CommercializationCommander, input)
}

func (e *CommandExecutor) ConnectionTest(ctx context.Context, input commands.ConnectionTestInput) error {
	return execute(ctx, e.ConnectionTestCommander, input)
}

func (e *CommandExecutor) RetryConnection(ctx context.Context, input commands.ConnectionTestInput) error {
	return execute(ctx, e.RetryConnectionCommander, input)
}

func (e *CommandExecutor) Assistance(ctx context.Context, input commands.ConnectionTestInput) error {
	return execute(ctx, e.AssistanceCommander, input)
}

func (e *CommandExecutor) Submit(ctx context.Context, input commands.SubmitInput) error {
	return execute(ctx, e.SubmitCommander, input)
}

func (e *CommandExecutor) State(ctx context.Context, req queries.StateRequest) (onboarding.View, error) {
	return query(ctx, e.StateQuerier, req)
}

func (e *CommandExecutor) Places(ctx context.Context, req queries.PlacesRequest) ([]onboarding.Place, error) {
	return query(ctx, e.PlacesQuerier, req)
}

func (e *CommandExecutor) Document(ctx context.Context, req queries.DocumentRequest) (queries.Document, error) {
	return query(ctx, e.DocumentQuerier, req)
}
