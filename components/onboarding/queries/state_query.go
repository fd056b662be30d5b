package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-evcharger/components/onboarding"
)

// StateRequest addresses one session.
type StateRequest struct {
	SessionID string `json:"session_id"`
}

type stateService interface {
	State(ctx context.Context, id string) (onboarding.View, error)
}

// StateQuery reads the wizard view model.
type StateQuery struct {
	service stateService
}

// NewStateQuery builds the query.
func NewStateQuery(service stateService) *StateQuery {
	return &StateQuery{service: service}
}

var _ gocommand.Querier[StateRequest, onboarding.View] = (*StateQuery)(nil)

// Query returns the current view of the session.
func (q *StateQuery) Query(ctx context.Context, req StateRequest) (onboarding.View, error) {
	return q.service.State(ctx, req.SessionID)
}
