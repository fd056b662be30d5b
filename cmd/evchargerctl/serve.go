package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-evcharger/components/onboarding"
	"github.com/goliatone/go-evcharger/components/onboarding/gorouter"
	"github.com/goliatone/go-evcharger/components/onboarding/httpapi"
	"github.com/goliatone/go-evcharger/internal/config"
	"github.com/goliatone/go-evcharger/pkg/activity"
	"github.com/goliatone/go-evcharger/pkg/activity/usersink"
	"github.com/goliatone/go-evcharger/pkg/appctx"
	"github.com/goliatone/go-evcharger/pkg/chargeapi"
	"github.com/goliatone/go-evcharger/pkg/geocode"
)

type serveCmd struct {
	Listen    string `help:"Listen address override."`
	Transport string `help:"Transport override (fiber or http)."`
	Mock      bool   `help:"Use the in-memory charging backend."`
}

// stack is everything the transports need.
type stack struct {
	cfg        *config.Config
	logger     logr.Logger
	registry   *prometheus.Registry
	service    *onboarding.Service
	store      *onboarding.InMemorySessionStore
	controller *onboarding.Controller
	executor   *httpapi.CommandExecutor
	broadcast  *onboarding.BroadcastHook
	funnel     *onboarding.FunnelTelemetry
}

func (cmd *serveCmd) Run(ctx context.Context, g *globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	if cmd.Listen != "" {
		cfg.Server.Listen = cmd.Listen
	}
	if cmd.Transport != "" {
		cfg.Server.Transport = cmd.Transport
	}
	if cmd.Mock {
		cfg.API.Mock = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := buildStack(cfg, logger)
	if err != nil {
		return err
	}
	go s.store.RunExpiry(ctx, cfg.Sessions.TTL, cfg.Sessions.Sweep)

	metrics := &http.Server{
		Addr:              cfg.Server.MetricsListen,
		Handler:           s.metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "metrics server stopped")
		}
	}()
	defer shutdown(metrics.Shutdown)

	logger.Info("onboarding server starting",
		"transport", cfg.Server.Transport,
		"listen", cfg.Server.Listen,
		"base_path", cfg.Server.BasePath,
		"metrics", cfg.Server.MetricsListen+cfg.Server.MetricsPath,
	)
	if cfg.Server.Transport == config.TransportHTTP {
		return s.serveHTTP(ctx)
	}
	return s.serveFiber(ctx)
}

func buildStack(cfg *config.Config, logger logr.Logger) (*stack, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom, err := onboarding.NewPrometheusTelemetry(registry)
	if err != nil {
		return nil, err
	}
	funnel := onboarding.NewFunnelTelemetry()
	telemetry := onboarding.MultiTelemetry{prom, funnel}

	var app *appctx.App
	if cfg.Credentials.Path != "" {
		if app, err = appctx.Open(appctx.FileStore{Path: cfg.Credentials.Path, Passphrase: cfg.Credentials.Passphrase}); err != nil {
			return nil, err
		}
	}
	client, err := newChargeClient(cfg, app)
	if err != nil {
		return nil, err
	}

	broadcast := onboarding.NewBroadcastHook(cfg.Server.AllowedOrigins...)
	hooks := onboarding.MultiHook{broadcast}
	if cfg.Activity {
		emitter := activity.NewEmitter(activity.Hooks{usersink.Hook{Sink: logSink{logger: logger.WithName("activity")}}}, activity.Config{Enabled: true})
		hook := &onboarding.ActivityHook{Emitter: emitter}
		if app != nil {
			hook.Actor = app.Actor
		}
		hooks = append(hooks, hook)
	}

	geocoder, err := newGeocoder(cfg, logger)
	if err != nil {
		return nil, err
	}

	policy := cfg.Onboarding.Policy
	fallback := cfg.Onboarding.Fallback
	probeTimeout := cfg.Onboarding.ProbeTimeout
	store := onboarding.NewInMemorySessionStore()
	service := onboarding.NewService(onboarding.ServiceOptions{
		Store:     store,
		Telemetry: telemetry,
		Logger:    logger.WithName("onboarding"),
		Wizard: onboarding.Options{
			Policy:         &policy,
			NewProbe:       func() onboarding.ConnectionProbe { return onboarding.NewSimulatedProbe(probeTimeout) },
			Publisher:      client,
			Accounts:       client,
			Geocoder:       geocoder,
			Hook:           hooks,
			Network:        cfg.Onboarding.Network,
			Fallback:       &fallback,
			SupportContact: cfg.Onboarding.SupportContact,
			AggregatorURL:  cfg.Onboarding.AggregatorURL,
		},
	})

	renderer, err := onboarding.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("evchargerctl: template renderer: %w", err)
	}

	return &stack{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		service:    service,
		store:      store,
		controller: onboarding.NewController(onboarding.ControllerOptions{Service: service, Renderer: renderer}),
		executor:   httpapi.NewCommandExecutor(service, telemetry),
		broadcast:  broadcast,
		funnel:     funnel,
	}, nil
}

func newChargeClient(cfg *config.Config, app *appctx.App) (chargeapi.Client, error) {
	if cfg.API.Mock {
		return chargeapi.NewMockClient(chargeapi.MockData{}), nil
	}
	if cfg.API.BaseURL == "" {
		// publishing is disabled; keep the account lookup harmless
		return chargeapi.NewMockClient(chargeapi.MockData{}), nil
	}
	httpCfg := chargeapi.HTTPConfig{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}
	if app != nil {
		if err := app.Check(); err == nil {
			httpCfg.Token = app.Credentials().AccessToken
		}
	}
	return chargeapi.NewHTTPClient(httpCfg)
}

func newGeocoder(cfg *config.Config, logger logr.Logger) (onboarding.Geocoder, error) {
	offline := geocode.Offline{Places: []onboarding.Place{{
		DisplayName: cfg.Onboarding.Fallback.DisplayName,
		Coordinates: cfg.Onboarding.Fallback.Coordinates,
	}}}
	if cfg.Geocoder.BaseURL == "" {
		return offline, nil
	}
	remote, err := geocode.NewHTTPGeocoder(geocode.HTTPConfig{BaseURL: cfg.Geocoder.BaseURL, Language: cfg.Geocoder.Language})
	if err != nil {
		return nil, err
	}
	return geocode.Fallback{Primary: remote, Secondary: offline, Logger: logger.WithName("geocode")}, nil
}

func (s *stack) metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Server.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *stack) serveFiber(ctx context.Context) error {
	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:     server.Router(),
		Controller: s.controller,
		API:        s.executor,
		Broadcast:  s.broadcast,
		Funnel:     s.funnel,
		BasePath:   s.cfg.Server.BasePath,
	}); err != nil {
		return fmt.Errorf("evchargerctl: register routes: %w", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(s.cfg.Server.Listen) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdown(server.Shutdown)
		return nil
	}
}

func (s *stack) serveHTTP(ctx context.Context) error {
	base := "/" + strings.Trim(s.cfg.Server.BasePath, "/")
	mux := http.NewServeMux()
	s.executor.Handlers().Mount(mux, base)
	mux.HandleFunc("GET "+base+"/ws", s.broadcast.ServeWebSocket)
	mux.HandleFunc("GET "+base+"/events", s.broadcast.ServeSSE)
	mux.HandleFunc("GET "+base+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.controller.RenderTemplate(r.Context(), r.PathValue("id"), r.URL.Query().Get("locale"), w); err != nil {
			httpapi.WriteError(w, err)
		}
	})
	server := &http.Server{Addr: s.cfg.Server.Listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdown(server.Shutdown)
		return nil
	}
}

func shutdown(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = fn(ctx)
}

// logSink writes activity records to the process log.
type logSink struct {
	logger logr.Logger
}

func (s logSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.logger.Info("activity",
		"verb", record.Verb,
		"object_type", record.ObjectType,
		"object_id", record.ObjectID,
		"user_id", record.UserID.String(),
	)
	return nil
}
