package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-evcharger/internal/config"
	"github.com/goliatone/go-evcharger/pkg/appctx"
	"github.com/goliatone/go-evcharger/pkg/chargeapi"
)

var errNoCredentialsPath = errors.New("evchargerctl: credentials.path is not configured")

func openApp(cfg *config.Config) (*appctx.App, error) {
	if cfg.Credentials.Path == "" {
		return nil, errNoCredentialsPath
	}
	return appctx.Open(appctx.FileStore{Path: cfg.Credentials.Path, Passphrase: cfg.Credentials.Passphrase})
}

type loginCmd struct {
	Email    string `required:"" help:"Account email."`
	Password string `required:"" env:"EVCHARGER_PASSWORD" help:"Account password."`
	Site     string `help:"Site to select after signing in."`
}

func (cmd *loginCmd) Run(ctx context.Context, g *globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	app, err := openApp(cfg)
	if err != nil {
		return err
	}
	client, err := chargeapi.NewHTTPClient(chargeapi.HTTPConfig{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout})
	if err != nil {
		return err
	}
	token, err := client.Login(ctx, cmd.Email, cmd.Password)
	if err != nil {
		return err
	}
	if err := app.SignIn(cfg.API.BaseURL, cmd.Email, token.AccessToken, token.RefreshToken); err != nil {
		return err
	}
	if cmd.Site != "" {
		if err := app.SelectSite(cmd.Site); err != nil {
			return err
		}
	}
	logger.V(1).Info("signed in", "email", cmd.Email)
	fmt.Fprintf(os.Stdout, "✓ Signed in as %s\n", cmd.Email)
	return nil
}

type logoutCmd struct{}

func (cmd *logoutCmd) Run(ctx context.Context, g *globals) error {
	cfg, _, err := g.load()
	if err != nil {
		return err
	}
	app, err := openApp(cfg)
	if err != nil {
		return err
	}
	var revoker appctx.Revoker
	if base := app.Credentials().BaseURL; base != "" {
		client, err := chargeapi.NewHTTPClient(chargeapi.HTTPConfig{BaseURL: base, Token: app.Credentials().AccessToken, Timeout: cfg.API.Timeout})
		if err == nil {
			revoker = client
		}
	}
	if err := app.Logout(ctx, revoker); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	fmt.Fprintln(os.Stdout, "✓ Signed out")
	return nil
}

type whoamiCmd struct{}

func (cmd *whoamiCmd) Run(_ context.Context, g *globals) error {
	cfg, _, err := g.load()
	if err != nil {
		return err
	}
	app, err := openApp(cfg)
	if err != nil {
		return err
	}
	if err := app.Check(); err != nil {
		return err
	}
	creds := app.Credentials()
	fmt.Fprintf(os.Stdout, "email:  %s\nserver: %s\nsite:   %s\n", creds.Email, creds.BaseURL, creds.SiteID)
	if claims := app.Claims(); claims != nil {
		fmt.Fprintf(os.Stdout, "user:   %s\ntenant: %s\n", claims.Subject, claims.TenantID)
		if claims.ExpiresAt != nil {
			fmt.Fprintf(os.Stdout, "expires: %s\n", claims.ExpiresAt.Time.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}
