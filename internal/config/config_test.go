package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithMockAPI(t *testing.T) {
	t.Setenv("EVCHARGER_API_MOCK", "true")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "/onboarding", cfg.Server.BasePath)
	assert.Equal(t, onboarding.DefaultPolicy(), cfg.Onboarding.Policy)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.TTL)
	assert.Equal(t, onboarding.DefaultProbeTimeout, cfg.Onboarding.ProbeTimeout)
	assert.Equal(t, onboarding.DefaultFallbackLocation, cfg.Onboarding.Fallback)
}

func TestLoadRequiresAPIURLWhenPublishing(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeFile(t, "evcharger.yaml", `
server:
  listen: ":9000"
api:
  base_url: https://api.example.com
  timeout: 2s
onboarding:
  policy:
    require_photo: false
  network:
    server_url: wss://ocpp.example.com
    station_id: ST-1
`)
	t.Setenv("EVCHARGER_SERVER_LISTEN", ":9100")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Listen)
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.Onboarding.Policy.RequirePhoto)
	assert.True(t, cfg.Onboarding.Policy.EnableGeoSearch)
	assert.Equal(t, "ST-1", cfg.Onboarding.Network.StationID)
}

func TestPolicyFileOverlay(t *testing.T) {
	policy := writeFile(t, "policy.yaml", `
version: "1"
policy:
  attempt_api_post_on_publish: false
fallback_location:
  coordinates:
    latitude: 41.3874
    longitude: 2.1686
  display_name: Barcelona
`)
	t.Setenv("EVCHARGER_ONBOARDING_POLICY_FILE", policy)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Onboarding.Policy.AttemptAPIPostOnPublish)
	assert.True(t, cfg.Onboarding.Policy.RequirePhoto)
	assert.Equal(t, "Barcelona", cfg.Onboarding.Fallback.DisplayName)
}

func TestValidateRejectsBadFallback(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Listen: ":1", Transport: TransportHTTP},
		API:      APIConfig{Mock: true},
		Sessions: SessionConfig{TTL: time.Minute},
		Onboarding: OnboardingConfig{
			Fallback: onboarding.LocationSection{Coordinates: onboarding.Coordinates{Latitude: 91}},
		},
	}
	assert.Error(t, cfg.Validate())
}
