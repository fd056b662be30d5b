package chargeapi

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Charger is a charging station registered with the backend.
type Charger struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serialNumber"`
	SiteID       string `json:"siteId,omitempty"`
	Mode         string `json:"mode"`
	Status       string `json:"status,omitempty"`
}

// Session is a charging session on a connector.
type Session struct {
	ID          string     `json:"id"`
	ChargerID   string     `json:"chargerId"`
	ConnectorID int        `json:"connectorId"`
	Status      string     `json:"status"`
	EnergyKWh   float64    `json:"energyKwh"`
	StartedAt   time.Time  `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
}

// Site groups chargers at one address.
type Site struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PricingPlan prices energy or time on a charger.
type PricingPlan struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Model    string  `json:"model"`
	Rate     float64 `json:"rate"`
	Currency string  `json:"currency"`
}

// AccessRule restricts who may charge where.
type AccessRule struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	ChargerIDs []string `json:"chargerIds,omitempty"`
	UserIDs    []string `json:"userIds,omitempty"`
}

// User is an account known to the backend.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
}

// Resource is the CRUD surface shared by every collection.
type Resource[T any] struct {
	client *HTTPClient
	path   string
}

// List returns the collection, narrowed by optional query filters.
func (r Resource[T]) List(ctx context.Context, filter url.Values) ([]T, error) {
	var out []T
	if err := r.client.do(ctx, request{method: http.MethodGet, path: r.path, query: filter}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := r.client.do(ctx, request{method: http.MethodGet, path: r.path + "/" + url.PathEscape(id)}, &out)
	return out, err
}

func (r Resource[T]) Create(ctx context.Context, item T) (T, error) {
	var out T
	err := r.client.do(ctx, request{method: http.MethodPost, path: r.path, payload: item}, &out)
	return out, err
}

func (r Resource[T]) Update(ctx context.Context, id string, item T) (T, error) {
	var out T
	err := r.client.do(ctx, request{method: http.MethodPut, path: r.path + "/" + url.PathEscape(id), payload: item}, &out)
	return out, err
}

func (r Resource[T]) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, request{method: http.MethodDelete, path: r.path + "/" + url.PathEscape(id)}, nil)
}

func (c *HTTPClient) Chargers() Resource[Charger] { return Resource[Charger]{client: c, path: "/chargers"} }
func (c *HTTPClient) Sites() Resource[Site] { return Resource[Site]{client: c, path: "/sites"} }
func (c *HTTPClient) Pricing() Resource[PricingPlan] { return Resource[PricingPlan]{client: c, path: "/pricing"} }
func (c *HTTPClient) Access() Resource[AccessRule] { return Resource[AccessRule]{client: c, path: "/access"} }
func (c *HTTPClient) Users() Resource[User] { return Resource[User]{client: c, path: "/users"} }
func (c *HTTPClient) Sessions() Resource[Session] { return Resource[Session]{client: c, path: "/sessions"} }

// ListSessions returns charging sessions, optionally for one charger.
func (c *HTTPClient) ListSessions(ctx context.Context, chargerID string) ([]Session, error) {
	filter := url.Values{}
	if chargerID != "" {
		filter.Set("chargerId", chargerID)
	}
	return c.Sessions().List(ctx, filter)
}

// StartSession starts charging on a connector.
func (c *HTTPClient) StartSession(ctx context.Context, chargerID string, connectorID int) (Session, error) {
	var out Session
	payload := map[string]any{"chargerId": chargerID, "connectorId": connectorID}
	err := c.do(ctx, request{method: http.MethodPost, path: "/sessions", payload: payload}, &out)
	return out, err
}

// StopSession ends a running session.
func (c *HTTPClient) StopSession(ctx context.Context, sessionID string) (Session, error) {
	var out Session
	err := c.do(ctx, request{method: http.MethodPost, path: "/sessions/" + url.PathEscape(sessionID) + "/stop"}, &out)
	return out, err
}
