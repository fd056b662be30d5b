package chargeapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goliatone/go-evcharger/components/onboarding"
	"github.com/google/uuid"
)

// MockData seeds the mock backend.
type MockData struct {
	Chargers []Charger
	Sessions []Session
	Users    []User
}

// MockClient implements Client in memory for demos and tests.
type MockClient struct {
	mu        sync.Mutex
	chargers  []Charger
	sessions  []Session
	users     []User
	published map[string]onboarding.PublishReceipt
	token     string
	now       func() time.Time

	// PublishErr, when set, fails every publish.
	PublishErr error
}

// NewMockClient builds a mock client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	return &MockClient{
		chargers:  append([]Charger(nil), data.Chargers...),
		sessions:  append([]Session(nil), data.Sessions...),
		users:     append([]User(nil), data.Users...),
		published: map[string]onboarding.PublishReceipt{},
		now:       time.Now,
	}
}

// Publish records the payload as a new charger. Repeated draft ids return
// the first receipt.
func (c *MockClient) Publish(_ context.Context, payload onboarding.Payload) (onboarding.PublishReceipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PublishErr != nil {
		return onboarding.PublishReceipt{}, c.PublishErr
	}
	if receipt, ok := c.published[payload.DraftID]; ok {
		return receipt, nil
	}
	receipt := onboarding.PublishReceipt{ChargerID: uuid.NewString(), CreatedAt: c.now().UTC()}
	c.chargers = append(c.chargers, Charger{
		ID:           receipt.ChargerID,
		Name:         payload.Charger.Name,
		SerialNumber: payload.Charger.SerialNumber,
		Mode:         string(payload.Commercialization.Mode),
		Status:       "registered",
	})
	c.published[payload.DraftID] = receipt
	return receipt, nil
}

// Published returns how many distinct payloads were accepted.
func (c *MockClient) Published() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.published)
}

// Chargers returns a copy of the registered chargers.
func (c *MockClient) Chargers() []Charger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Charger(nil), c.chargers...)
}

func (c *MockClient) CommercialChargerCount(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, ch := range c.chargers {
		if ch.Mode == string(onboarding.ModeCommercial) {
			count++
		}
	}
	return count, nil
}

func (c *MockClient) ListSessions(_ context.Context, chargerID string) ([]Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		if chargerID == "" || s.ChargerID == chargerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *MockClient) StartSession(_ context.Context, chargerID string, connectorID int) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sessions {
		if s.ChargerID == chargerID && s.ConnectorID == connectorID && s.EndedAt == nil {
			return Session{}, &RemoteError{Status: http.StatusConflict, Body: fmt.Sprintf("connector %d busy", connectorID)}
		}
	}
	session := Session{
		ID:          uuid.NewString(),
		ChargerID:   chargerID,
		ConnectorID: connectorID,
		Status:      "charging",
		StartedAt:   c.now().UTC(),
	}
	c.sessions = append(c.sessions, session)
	return session, nil
}

func (c *MockClient) StopSession(_ context.Context, sessionID string) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.sessions {
		if s.ID != sessionID {
			continue
		}
		if s.EndedAt == nil {
			ended := c.now().UTC()
			s.EndedAt = &ended
			s.Status = "completed"
			c.sessions[i] = s
		}
		return s, nil
	}
	return Session{}, &RemoteError{Status: http.StatusNotFound, Body: "session not found"}
}

func (c *MockClient) Login(_ context.Context, email, password string) (Token, error) {
	if email == "" || password == "" {
		return Token{}, ErrCredentialsRequired
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = uuid.NewString()
	return Token{AccessToken: c.token, ExpiresAt: c.now().Add(time.Hour).UTC()}, nil
}

func (c *MockClient) Logout(context.Context) error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return nil
}
