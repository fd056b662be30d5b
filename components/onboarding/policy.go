package onboarding

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	policyVersionV1 = "1"
	// PolicyVersion exposes the current policy document version for tooling.
	PolicyVersion = policyVersionV1
)

// Policy toggles the conditional rules of the wizard.
type Policy struct {
	RequirePhoto                  bool `json:"require_photo" yaml:"require_photo"`
	AllowContinueOnConnectionFail bool `json:"allow_continue_on_connection_fail" yaml:"allow_continue_on_connection_fail"`
	// CommercialLimitWarnOnly=false would require blocking; the wizard always
	// warns instead.
	CommercialLimitWarnOnly bool `json:"commercial_limit_warn_only" yaml:"commercial_limit_warn_only"`
	EnableGeoSearch         bool `json:"enable_geo_search" yaml:"enable_geo_search"`
	AttemptAPIPostOnPublish bool `json:"attempt_api_post_on_publish" yaml:"attempt_api_post_on_publish"`
}

// DefaultPolicy mirrors the production mobile app.
func DefaultPolicy() Policy {
	return Policy{
		RequirePhoto:                  true,
		AllowContinueOnConnectionFail: true,
		CommercialLimitWarnOnly:       true,
		EnableGeoSearch:               true,
		AttemptAPIPostOnPublish:       true,
	}
}

// PolicyDocument is the YAML form of a policy plus the onboarding defaults
// operators usually ship alongside it.
type PolicyDocument struct {
	Version  string           `json:"version" yaml:"version"`
	Policy   *Policy          `json:"policy" yaml:"policy"`
	Network  NetworkProfile   `json:"network,omitempty" yaml:"network,omitempty"`
	Fallback *LocationSection `json:"fallback_location,omitempty" yaml:"fallback_location,omitempty"`
	Source   string           `json:"-" yaml:"-"`
}

// ReadPolicy loads a policy document from disk.
func ReadPolicy(path string) (*PolicyDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("onboarding: open policy %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodePolicy(f)
	if err != nil {
		return nil, fmt.Errorf("onboarding: decode policy %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodePolicy reads a policy document from any reader. Unknown keys are
// rejected so a typo in a flag name does not silently fall back to defaults.
func DecodePolicy(r io.Reader) (*PolicyDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	// omitted flags keep their default
	defaults := DefaultPolicy()
	doc := PolicyDocument{Policy: &defaults}
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("onboarding: policy is empty")
		}
		return nil, fmt.Errorf("onboarding: parse policy: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the document is usable.
func (doc *PolicyDocument) Validate() error {
	if doc.Version != policyVersionV1 {
		return fmt.Errorf("onboarding: unsupported policy version %q", doc.Version)
	}
	if doc.Fallback != nil && !doc.Fallback.Coordinates.Valid() {
		return fmt.Errorf("onboarding: fallback location %s is out of range", doc.Fallback.Coordinates)
	}
	return nil
}

func (doc *PolicyDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = policyVersionV1
	}
	if doc.Policy == nil {
		policy := DefaultPolicy()
		doc.Policy = &policy
	}
}

// FallbackLocation returns the configured fallback or the package default.
func (doc *PolicyDocument) FallbackLocation() LocationSection {
	if doc == nil || doc.Fallback == nil {
		return DefaultFallbackLocation
	}
	return *doc.Fallback
}
