package appctx

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

var (
	ErrSignedOut    = errors.New("appctx: not signed in")
	ErrTokenExpired = errors.New("appctx: access token expired")
	ErrSiteRequired = errors.New("appctx: site id is required")
)

// Store persists credentials between runs.
type Store interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// Revoker ends the session on the backend.
type Revoker interface {
	Logout(ctx context.Context) error
}

// App is the explicit application context handed to collaborators instead of
// globals: stored credentials, their decoded claims and the selected site.
type App struct {
	mu     sync.RWMutex
	store  Store
	creds  Credentials
	claims *Claims
	now    func() time.Time
}

// Open loads stored credentials. An unreadable token is dropped, not fatal.
func Open(store Store) (*App, error) {
	if store == nil {
		return nil, errors.New("appctx: store is required")
	}
	creds, err := store.Load()
	if err != nil {
		return nil, err
	}
	app := &App{store: store, creds: creds, now: time.Now}
	if creds.AccessToken != "" {
		app.claims, _ = ParseClaims(creds.AccessToken)
	}
	return app, nil
}

// Credentials returns a copy of the stored credentials.
func (a *App) Credentials() Credentials {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.creds
}

// Claims returns the decoded access token claims, or nil.
func (a *App) Claims() *Claims {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.claims == nil {
		return nil
	}
	out := *a.claims
	return &out
}

// Check reports ErrSignedOut or ErrTokenExpired when the stored token cannot
// be used.
func (a *App) Check() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.creds.AccessToken == "" {
		return ErrSignedOut
	}
	if a.claims != nil && a.claims.ExpiresAt != nil && !a.now().Before(a.claims.ExpiresAt.Time) {
		return ErrTokenExpired
	}
	return nil
}

// SignIn stores a fresh token and persists it.
func (a *App) SignIn(baseURL, email, accessToken, refreshToken string) error {
	claims, err := ParseClaims(accessToken)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.creds
	next.BaseURL = strings.TrimSpace(baseURL)
	next.Email = strings.TrimSpace(email)
	next.AccessToken = accessToken
	next.RefreshToken = refreshToken
	if next.Email == "" {
		next.Email = claims.Email
	}
	if err := a.store.Save(next); err != nil {
		return err
	}
	a.creds = next
	a.claims = claims
	return nil
}

// SelectSite remembers the site the user is working on.
func (a *App) SelectSite(siteID string) error {
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		return ErrSiteRequired
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.creds
	next.SiteID = siteID
	if err := a.store.Save(next); err != nil {
		return err
	}
	a.creds = next
	return nil
}

// Logout revokes the token remotely when a revoker is given, then forgets
// everything locally. The local state is cleared even if revocation fails.
func (a *App) Logout(ctx context.Context, revoker Revoker) error {
	var errs []error
	if revoker != nil {
		if err := revoker.Logout(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.store.Clear(); err != nil {
		errs = append(errs, err)
	}
	a.creds = Credentials{}
	a.claims = nil
	return errors.Join(errs...)
}

// Actor resolves the signed-in user for activity records. It matches
// onboarding.ActorResolver.
func (a *App) Actor(context.Context) onboarding.Actor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.claims == nil {
		return onboarding.Actor{}
	}
	return onboarding.Actor{UserID: a.claims.Subject, TenantID: a.claims.TenantID}
}
