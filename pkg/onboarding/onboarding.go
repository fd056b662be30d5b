package onboarding

import (
	core "github.com/goliatone/go-evcharger/components/onboarding"
)

// Service exposes the underlying components/onboarding.Service type.
type Service = core.Service

// ServiceOptions re-export for convenience.
type ServiceOptions = core.ServiceOptions

// Options configures every wizard the service starts.
type Options = core.Options

// Policy re-export for hosts that build policies in code.
type Policy = core.Policy

// NewService proxies to the internal constructor.
func NewService(opts ServiceOptions) *Service {
	return core.NewService(opts)
}

// DefaultPolicy proxies to the internal defaults.
func DefaultPolicy() Policy {
	return core.DefaultPolicy()
}
