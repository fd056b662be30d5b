package goadmin

import (
	"context"
	"errors"

	core "github.com/goliatone/go-evcharger/components/onboarding"
	activitypkg "github.com/goliatone/go-evcharger/pkg/activity"
	onboardingpkg "github.com/goliatone/go-evcharger/pkg/onboarding"
)

// MenuBuilder ensures the onboarding entry exists within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures onboarding link metadata.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
}

// Config wires the onboarding service and feature flags into an admin shell.
type Config struct {
	EnableOnboarding bool
	MenuCode         string
	MenuBuilder      MenuBuilder
	Service          *onboardingpkg.Service
	DefaultMenuItem  MenuItem
	ActivityHooks    activitypkg.Hooks
	ActivityConfig   activitypkg.Config
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg Config
}

// New creates an Admin helper that can seed the "add charger" menu entry.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableOnboarding && cfg.Service == nil {
		return nil, errors.New("goadmin: onboarding service is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if cfg.DefaultMenuItem.Label == "" {
		cfg.DefaultMenuItem.Label = "Add charger"
	}
	if cfg.DefaultMenuItem.Route == "" {
		cfg.DefaultMenuItem.Route = "admin.onboarding"
	}
	if cfg.DefaultMenuItem.Icon == "" {
		cfg.DefaultMenuItem.Icon = "plug"
	}
	return &Admin{cfg: cfg}, nil
}

// Onboarding exposes the configured service when enabled.
func (a *Admin) Onboarding() *onboardingpkg.Service {
	if !a.cfg.EnableOnboarding {
		return nil
	}
	return a.cfg.Service
}

// ActivityHook turns submissions into admin activity entries. It returns nil
// when no activity hooks are configured.
func (a *Admin) ActivityHook(actor core.ActorResolver) *core.ActivityHook {
	if len(a.cfg.ActivityHooks) == 0 {
		return nil
	}
	return &core.ActivityHook{
		Emitter: activitypkg.NewEmitter(a.cfg.ActivityHooks, a.cfg.ActivityConfig),
		Actor:   actor,
	}
}

// Bootstrap seeds menu entries when onboarding is enabled.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableOnboarding || a.cfg.MenuBuilder == nil {
		return nil
	}
	return a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, a.cfg.DefaultMenuItem)
}
