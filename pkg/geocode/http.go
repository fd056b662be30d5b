package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

const (
	DefaultLimit     = 5
	DefaultUserAgent = "go-evcharger/onboarding"
)

// HTTPConfig configures a Nominatim-compatible geocoding endpoint.
type HTTPConfig struct {
	BaseURL    string
	UserAgent  string
	Language   string
	Limit      int
	HTTPClient *http.Client
}

// HTTPGeocoder resolves places through a Nominatim-style REST API.
type HTTPGeocoder struct {
	baseURL   string
	userAgent string
	language  string
	limit     int
	client    *http.Client
}

var _ onboarding.Geocoder = (*HTTPGeocoder)(nil)

// NewHTTPGeocoder builds a geocoder for cfg.BaseURL.
func NewHTTPGeocoder(cfg HTTPConfig) (*HTTPGeocoder, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("geocode: base url is required")
	}
	g := &HTTPGeocoder{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		language:  cfg.Language,
		limit:     cfg.Limit,
		client:    cfg.HTTPClient,
	}
	if g.userAgent == "" {
		g.userAgent = DefaultUserAgent
	}
	if g.limit <= 0 {
		g.limit = DefaultLimit
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: 5 * time.Second}
	}
	return g, nil
}

type place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (p place) toPlace() (onboarding.Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return onboarding.Place{}, fmt.Errorf("geocode: parse latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return onboarding.Place{}, fmt.Errorf("geocode: parse longitude %q: %w", p.Lon, err)
	}
	return onboarding.Place{
		DisplayName: p.DisplayName,
		Coordinates: onboarding.Coordinates{Latitude: lat, Longitude: lon},
	}, nil
}

// Search returns up to the configured limit of candidates for query.
func (g *HTTPGeocoder) Search(ctx context.Context, query string) ([]onboarding.Place, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {strconv.Itoa(g.limit)},
	}
	var raw []place
	if err := g.get(ctx, "/search", params, &raw); err != nil {
		return nil, err
	}
	out := make([]onboarding.Place, 0, len(raw))
	for _, p := range raw {
		converted, err := p.toPlace()
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

// Reverse names the place at coords.
func (g *HTTPGeocoder) Reverse(ctx context.Context, coords onboarding.Coordinates) (onboarding.Place, error) {
	params := url.Values{
		"lat":    {strconv.FormatFloat(coords.Latitude, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(coords.Longitude, 'f', -1, 64)},
		"format": {"json"},
	}
	var raw place
	if err := g.get(ctx, "/reverse", params, &raw); err != nil {
		return onboarding.Place{}, err
	}
	if raw.DisplayName == "" {
		return onboarding.Place{}, errors.New("geocode: no place at coordinates")
	}
	// keep the pinned position, the provider snaps to the nearest feature
	return onboarding.Place{DisplayName: raw.DisplayName, Coordinates: coords}, nil
}

func (g *HTTPGeocoder) get(ctx context.Context, path string, params url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")
	if g.language != "" {
		req.Header.Set("Accept-Language", g.language)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("geocode: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("geocode: remote error %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("geocode: decode response: %w", err)
	}
	return nil
}
