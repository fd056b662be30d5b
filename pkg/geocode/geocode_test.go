package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

var gazetteer = Offline{Places: []onboarding.Place{
	{DisplayName: "Plaza Mayor, Madrid", Coordinates: onboarding.Coordinates{Latitude: 40.4155, Longitude: -3.7074}},
	{DisplayName: "Sagrada Familia, Barcelona", Coordinates: onboarding.Coordinates{Latitude: 41.4036, Longitude: 2.1744}},
}}

func TestHTTPGeocoderSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "madrid", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"display_name":"Madrid, Spain","lat":"40.4167","lon":"-3.7033"}]`))
	}))
	t.Cleanup(server.Close)

	g, err := NewHTTPGeocoder(HTTPConfig{BaseURL: server.URL, Limit: 3})
	require.NoError(t, err)
	places, err := g.Search(context.Background(), "madrid")
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Madrid, Spain", places[0].DisplayName)
	assert.InDelta(t, 40.4167, places[0].Coordinates.Latitude, 1e-9)
}

func TestHTTPGeocoderReverseKeepsPinnedCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		_, _ = w.Write([]byte(`{"display_name":"Calle Mayor 1","lat":"40.0","lon":"-3.0"}`))
	}))
	t.Cleanup(server.Close)

	g, err := NewHTTPGeocoder(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)
	pin := onboarding.Coordinates{Latitude: 40.41, Longitude: -3.70}
	place, err := g.Reverse(context.Background(), pin)
	require.NoError(t, err)
	assert.Equal(t, "Calle Mayor 1", place.DisplayName)
	assert.Equal(t, pin, place.Coordinates)
}

func TestHTTPGeocoderRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	g, err := NewHTTPGeocoder(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = g.Search(context.Background(), "x")
	assert.Error(t, err)
}

func TestOfflineSearchAndReverse(t *testing.T) {
	places, err := gazetteer.Search(context.Background(), "  MADRID ")
	require.NoError(t, err)
	require.Len(t, places, 1)

	empty, err := gazetteer.Search(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	near, err := gazetteer.Reverse(context.Background(), onboarding.Coordinates{Latitude: 40.4156, Longitude: -3.7075})
	require.NoError(t, err)
	assert.Equal(t, "Plaza Mayor, Madrid", near.DisplayName)

	far, err := gazetteer.Reverse(context.Background(), onboarding.Coordinates{Latitude: 0, Longitude: 0})
	require.NoError(t, err)
	assert.Equal(t, "0.00000, 0.00000", far.DisplayName)
}

type failingGeocoder struct{}

func (failingGeocoder) Search(context.Context, string) ([]onboarding.Place, error) {
	return nil, errors.New("offline")
}

func (failingGeocoder) Reverse(context.Context, onboarding.Coordinates) (onboarding.Place, error) {
	return onboarding.Place{}, errors.New("offline")
}

func TestFallbackUsesSecondary(t *testing.T) {
	g := Fallback{Primary: failingGeocoder{}, Secondary: gazetteer}
	places, err := g.Search(context.Background(), "barcelona")
	require.NoError(t, err)
	require.Len(t, places, 1)

	_, err = Fallback{Primary: failingGeocoder{}}.Search(context.Background(), "x")
	assert.Error(t, err)
	_, err = Fallback{}.Reverse(context.Background(), onboarding.Coordinates{})
	assert.Error(t, err)
}
