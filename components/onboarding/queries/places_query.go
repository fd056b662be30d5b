package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-evcharger/components/onboarding"
)

// PlacesRequest searches places for the location step of a session.
type PlacesRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"q"`
}

type placesService interface {
	SearchPlaces(ctx context.Context, id, query string) ([]onboarding.Place, error)
}

// PlacesQuery runs free-text place search.
type PlacesQuery struct {
	service placesService
}

// NewPlacesQuery builds the query.
func NewPlacesQuery(service placesService) *PlacesQuery {
	return &PlacesQuery{service: service}
}

var _ gocommand.Querier[PlacesRequest, []onboarding.Place] = (*PlacesQuery)(nil)

// Query resolves the search text into places.
func (q *PlacesQuery) Query(ctx context.Context, req PlacesRequest) ([]onboarding.Place, error) {
	return q.service.SearchPlaces(ctx, req.SessionID, req.Query)
}
