package chargeapi

import (
	"context"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

// SessionClient drives charging sessions.
type SessionClient interface {
	ListSessions(ctx context.Context, chargerID string) ([]Session, error)
	StartSession(ctx context.Context, chargerID string, connectorID int) (Session, error)
	StopSession(ctx context.Context, sessionID string) (Session, error)
}

// AuthClient handles login state.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (Token, error)
	Logout(ctx context.Context) error
}

// Client is the union the wizard and CLI depend on.
type Client interface {
	onboarding.Publisher
	onboarding.AccountInspector
	SessionClient
	AuthClient
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*MockClient)(nil)
)
