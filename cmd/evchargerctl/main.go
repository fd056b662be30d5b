package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/go-logr/logr"

	"github.com/goliatone/go-evcharger/internal/config"
	"github.com/goliatone/go-evcharger/internal/logging"
)

type globals struct {
	Config    string `type:"path" short:"c" help:"Path to the YAML configuration file." env:"EVCHARGER_CONFIG"`
	LogLevel  string `help:"Log level override (trace, debug, info, warn, error)."`
	LogFormat string `help:"Log encoding override (console or json)."`
}

// load reads configuration and applies the flag overrides.
func (g *globals) load() (*config.Config, logr.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, logr.Discard(), err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Name: "evchargerctl"})
	return cfg, logger, nil
}

type cli struct {
	globals

	Serve  serveCmd  `cmd:"" help:"Run the onboarding wizard server."`
	Policy policyCmd `cmd:"" help:"Print or validate an onboarding policy document."`
	Print  printCmd  `cmd:"" help:"Render a payload JSON file as a printable PDF or XLSX sheet."`
	Login  loginCmd  `cmd:"" help:"Sign in to the charging backend and store the token."`
	Logout logoutCmd `cmd:"" help:"Revoke and forget the stored token."`
	Whoami whoamiCmd `cmd:"" help:"Show the signed-in account and selected site."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var root cli
	kctx := kong.Parse(&root,
		kong.Name("evchargerctl"),
		kong.Description("Charger onboarding wizard server and tooling."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(&root.globals),
	)
	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}
