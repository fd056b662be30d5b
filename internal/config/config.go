package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

const (
	TransportFiber = "fiber"
	TransportHTTP  = "http"
)

// EnvPrefix namespaces environment overrides, e.g. EVCHARGER_API_BASE_URL.
const EnvPrefix = "EVCHARGER"

// Config is the process configuration for evchargerctl.
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	API         APIConfig
	Geocoder    GeocoderConfig
	Sessions    SessionConfig
	Credentials CredentialsConfig
	Onboarding  OnboardingConfig
	Activity    bool
}

// ServerConfig selects the transport. "fiber" serves through go-router,
// "http" through net/http; metrics always use net/http on MetricsListen.
type ServerConfig struct {
	Transport      string
	Listen         string
	BasePath       string
	MetricsListen  string
	MetricsPath    string
	// AllowedOrigins may open the event stream in addition to the server host.
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// APIConfig points at the charging backend. Mock swaps in the in-memory client.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
	Mock    bool
}

// GeocoderConfig points at a Nominatim-style service; an empty URL keeps
// search offline.
type GeocoderConfig struct {
	BaseURL  string
	Language string
}

type SessionConfig struct {
	TTL   time.Duration
	Sweep time.Duration
}

type CredentialsConfig struct {
	Path       string
	Passphrase string
}

// OnboardingConfig feeds wizard options.
type OnboardingConfig struct {
	PolicyFile     string
	Policy         onboarding.Policy
	Network        onboarding.NetworkProfile
	Fallback       onboarding.LocationSection
	ProbeTimeout   time.Duration
	SupportContact string
	AggregatorURL  string
}

func setDefaults(v *viper.Viper) {
	policy := onboarding.DefaultPolicy()
	v.SetDefault("server.transport", TransportFiber)
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.metrics_listen", ":9090")
	v.SetDefault("server.base_path", "/onboarding")
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("api.mock", false)
	v.SetDefault("geocoder.base_url", "")
	v.SetDefault("geocoder.language", "")
	v.SetDefault("sessions.ttl", "30m")
	v.SetDefault("sessions.sweep", "1m")
	v.SetDefault("credentials.path", "")
	v.SetDefault("credentials.passphrase", "")
	v.SetDefault("activity.enabled", true)
	v.SetDefault("onboarding.policy_file", "")
	v.SetDefault("onboarding.policy.require_photo", policy.RequirePhoto)
	v.SetDefault("onboarding.policy.allow_continue_on_connection_fail", policy.AllowContinueOnConnectionFail)
	v.SetDefault("onboarding.policy.commercial_limit_warn_only", policy.CommercialLimitWarnOnly)
	v.SetDefault("onboarding.policy.enable_geo_search", policy.EnableGeoSearch)
	v.SetDefault("onboarding.policy.attempt_api_post_on_publish", policy.AttemptAPIPostOnPublish)
	v.SetDefault("onboarding.network.server_url", "")
	v.SetDefault("onboarding.network.station_id", "")
	v.SetDefault("onboarding.network.station_password", "")
	v.SetDefault("onboarding.fallback.latitude", onboarding.DefaultFallbackLocation.Coordinates.Latitude)
	v.SetDefault("onboarding.fallback.longitude", onboarding.DefaultFallbackLocation.Coordinates.Longitude)
	v.SetDefault("onboarding.fallback.display_name", onboarding.DefaultFallbackLocation.DisplayName)
	v.SetDefault("onboarding.probe_timeout", onboarding.DefaultProbeTimeout.String())
	v.SetDefault("onboarding.support_contact", "")
	v.SetDefault("onboarding.aggregator_url", "")
}

// New returns a viper instance with defaults and environment overrides.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads path (optional) on top of defaults and environment.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper extracts a validated Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Transport:      v.GetString("server.transport"),
			Listen:         v.GetString("server.listen"),
			BasePath:       v.GetString("server.base_path"),
			MetricsListen:  v.GetString("server.metrics_listen"),
			MetricsPath:    v.GetString("server.metrics_path"),
			AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		API: APIConfig{
			BaseURL: v.GetString("api.base_url"),
			Timeout: v.GetDuration("api.timeout"),
			Mock:    v.GetBool("api.mock"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:  v.GetString("geocoder.base_url"),
			Language: v.GetString("geocoder.language"),
		},
		Sessions: SessionConfig{
			TTL:   v.GetDuration("sessions.ttl"),
			Sweep: v.GetDuration("sessions.sweep"),
		},
		Credentials: CredentialsConfig{
			Path:       v.GetString("credentials.path"),
			Passphrase: v.GetString("credentials.passphrase"),
		},
		Activity: v.GetBool("activity.enabled"),
		Onboarding: OnboardingConfig{
			PolicyFile: v.GetString("onboarding.policy_file"),
			Policy: onboarding.Policy{
				RequirePhoto:                  v.GetBool("onboarding.policy.require_photo"),
				AllowContinueOnConnectionFail: v.GetBool("onboarding.policy.allow_continue_on_connection_fail"),
				CommercialLimitWarnOnly:       v.GetBool("onboarding.policy.commercial_limit_warn_only"),
				EnableGeoSearch:               v.GetBool("onboarding.policy.enable_geo_search"),
				AttemptAPIPostOnPublish:       v.GetBool("onboarding.policy.attempt_api_post_on_publish"),
			},
			Network: onboarding.NetworkProfile{
				ServerURL:       v.GetString("onboarding.network.server_url"),
				StationID:       v.GetString("onboarding.network.station_id"),
				StationPassword: v.GetString("onboarding.network.station_password"),
			},
			Fallback: onboarding.LocationSection{
				Coordinates: onboarding.Coordinates{
					Latitude:  v.GetFloat64("onboarding.fallback.latitude"),
					Longitude: v.GetFloat64("onboarding.fallback.longitude"),
				},
				DisplayName: v.GetString("onboarding.fallback.display_name"),
			},
			ProbeTimeout:   v.GetDuration("onboarding.probe_timeout"),
			SupportContact: v.GetString("onboarding.support_contact"),
			AggregatorURL:  v.GetString("onboarding.aggregator_url"),
		},
	}
	if err := cfg.Onboarding.ApplyPolicyFile(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Listen == "" {
		errs = append(errs, errors.New("config: server.listen is required"))
	}
	if c.Server.Transport != TransportFiber && c.Server.Transport != TransportHTTP {
		errs = append(errs, fmt.Errorf("config: unknown server.transport %q", c.Server.Transport))
	}
	if !c.API.Mock && c.API.BaseURL == "" && c.Onboarding.Policy.AttemptAPIPostOnPublish {
		errs = append(errs, errors.New("config: api.base_url is required unless api.mock is set or publishing is disabled"))
	}
	if !c.Onboarding.Fallback.Coordinates.Valid() {
		errs = append(errs, fmt.Errorf("config: onboarding.fallback %s is out of range", c.Onboarding.Fallback.Coordinates))
	}
	if c.Sessions.TTL <= 0 {
		errs = append(errs, errors.New("config: sessions.ttl must be positive"))
	}
	return errors.Join(errs...)
}

// ApplyPolicyFile overlays the YAML policy document, when configured, on the
// viper-sourced onboarding settings. Network and fallback from the document
// win only when present.
func (o *OnboardingConfig) ApplyPolicyFile() error {
	if o.PolicyFile == "" {
		return nil
	}
	doc, err := onboarding.ReadPolicy(o.PolicyFile)
	if err != nil {
		return err
	}
	if doc.Policy != nil {
		o.Policy = *doc.Policy
	}
	if doc.Network != (onboarding.NetworkProfile{}) {
		o.Network = doc.Network
	}
	if doc.Fallback != nil {
		o.Fallback = *doc.Fallback
	}
	return nil
}
