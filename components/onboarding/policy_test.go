package onboarding

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePolicyKeepsDefaultsForOmittedFlags(t *testing.T) {
	doc, err := DecodePolicy(strings.NewReader(`
policy:
  require_photo: false
network:
  server_url: wss://ocpp.example.com
  station_id: station-1
  station_password: secret
fallback_location:
  coordinates:
    latitude: 41.3851
    longitude: 2.1734
  display_name: Barcelona
`))
	require.NoError(t, err)
	assert.Equal(t, PolicyVersion, doc.Version)
	assert.False(t, doc.Policy.RequirePhoto)
	assert.True(t, doc.Policy.AllowContinueOnConnectionFail)
	assert.True(t, doc.Policy.AttemptAPIPostOnPublish)
	assert.Equal(t, "station-1", doc.Network.StationID)
	assert.Equal(t, "Barcelona", doc.FallbackLocation().DisplayName)
}

func TestDecodePolicyRejectsUnknownKeys(t *testing.T) {
	_, err := DecodePolicy(strings.NewReader("policy:\n  require_photos: true\n"))
	require.Error(t, err)
}

func TestDecodePolicyRejectsBadDocuments(t *testing.T) {
	_, err := DecodePolicy(strings.NewReader(""))
	require.Error(t, err)

	_, err = DecodePolicy(strings.NewReader("version: \"2\"\n"))
	require.ErrorContains(t, err, "unsupported policy version")

	_, err = DecodePolicy(strings.NewReader("fallback_location:\n  coordinates:\n    latitude: 100\n    longitude: 0\n"))
	require.ErrorContains(t, err, "out of range")
}

func TestReadPolicyRecordsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\n"), 0o600))
	doc, err := ReadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)
	assert.Equal(t, DefaultPolicy(), *doc.Policy)
	assert.Equal(t, DefaultFallbackLocation, doc.FallbackLocation())
}
