package chargeapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

// PublishPath receives assembled onboarding payloads.
const PublishPath = "/chargers/onboarding"

var (
	_ onboarding.Publisher        = (*HTTPClient)(nil)
	_ onboarding.AccountInspector = (*HTTPClient)(nil)
)

type publishResponse struct {
	ID        string    `json:"id"`
	ChargerID string    `json:"chargerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Publish posts the payload once. The draft id doubles as the idempotency
// key so a retried submit cannot register the charger twice.
func (c *HTTPClient) Publish(ctx context.Context, payload onboarding.Payload) (onboarding.PublishReceipt, error) {
	var resp publishResponse
	req := request{
		method:  http.MethodPost,
		path:    PublishPath,
		payload: payload,
		headers: map[string]string{"Idempotency-Key": payload.DraftID},
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return onboarding.PublishReceipt{}, err
	}
	id := resp.ChargerID
	if id == "" {
		id = resp.ID
	}
	return onboarding.PublishReceipt{ChargerID: id, CreatedAt: resp.CreatedAt}, nil
}

// CommercialChargerCount counts the account's chargers in commercial mode.
func (c *HTTPClient) CommercialChargerCount(ctx context.Context) (int, error) {
	chargers, err := c.Chargers().List(ctx, url.Values{"mode": {string(onboarding.ModeCommercial)}})
	if err != nil {
		return 0, err
	}
	count := 0
	for _, ch := range chargers {
		if ch.Mode == string(onboarding.ModeCommercial) {
			count++
		}
	}
	return count, nil
}

// Token is what the backend issues on login.
type Token struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
}

// ErrCredentialsRequired is returned by Login without email or password.
var ErrCredentialsRequired = errors.New("chargeapi: email and password are required")

// Login exchanges credentials for a token and uses it for later calls.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (Token, error) {
	if email == "" || password == "" {
		return Token{}, ErrCredentialsRequired
	}
	var token Token
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", payload: payload}, &token); err != nil {
		return Token{}, err
	}
	c.SetToken(token.AccessToken)
	return token, nil
}

// Logout revokes the token remotely and forgets it locally even when the
// remote call fails.
func (c *HTTPClient) Logout(ctx context.Context) error {
	defer c.SetToken("")
	if c.Token() == "" {
		return nil
	}
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil)
}
