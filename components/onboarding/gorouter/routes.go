package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/go-evcharger/components/onboarding"
	"github.com/goliatone/go-evcharger/components/onboarding/commands"
	"github.com/goliatone/go-evcharger/components/onboarding/httpapi"
	"github.com/goliatone/go-evcharger/components/onboarding/queries"
)

// Config wires go-router with the onboarding controller, API and hooks.
type Config[T any] struct {
	Router     router.Router[T]
	Controller *onboarding.Controller
	API        httpapi.Executor
	Broadcast  *onboarding.BroadcastHook
	Funnel     *onboarding.FunnelTelemetry
	BasePath   string
	Routes     RouteConfig
	// WebSocket overrides router.DefaultWebSocketConfig for the event
	// stream, e.g. to restrict allowed origins.
	WebSocket  *router.WebSocketConfig
}

// RouteConfig customizes the relative paths used for wizard endpoints.
type RouteConfig struct {
	HTML              string
	State             string
	Start             string
	Draft             string
	Next              string
	Back              string
	ConnectionTest    string
	RetryConnection   string
	Assistance        string
	Commercialization string
	Submit            string
	Places            string
	Close             string
	PDF               string
	XLSX              string
	WebSocket         string
	Funnel            string
	FunnelChart       string
}

// Register mounts wizard routes (HTML, JSON, documents, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := cfg.routes()
	base := cfg.BasePath
	if base == "" {
		base = "/onboarding"
	}

	group := cfg.Router.Group(base)

	// fixed paths go first so they are not captured by /:id
	if cfg.Broadcast != nil {
		wsCfg := router.DefaultWebSocketConfig()
		if cfg.WebSocket != nil {
			wsCfg = *cfg.WebSocket
		}
		registerWebSocket(group, cfg.Broadcast, wsCfg, routes.WebSocket)
	}
	if cfg.Funnel != nil {
		registerFunnel(group, cfg.Funnel, routes)
	}
	if cfg.API != nil {
		registerAPI(group, cfg.API, routes)
	}

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		var buf bytes.Buffer
		if err := cfg.Controller.RenderTemplate(ctx.Context(), ctx.Param("id"), inferLocale(ctx), &buf); err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	return nil
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, routes RouteConfig) {
	r.Post(routes.Start, router.WrapHandler(func(ctx router.Context) error {
		var payload onboarding.StartRequest
		if body := ctx.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				return badRequest(ctx, err)
			}
		}
		if payload.SessionID == "" {
			payload.SessionID = uuid.NewString()
		}
		if payload.Locale == "" {
			payload.Locale = inferLocale(ctx)
		}
		if err := api.Start(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return writeState(ctx, api, payload.SessionID, http.StatusCreated)
	}))

	r.Get(routes.State, router.WrapHandler(func(ctx router.Context) error {
		return writeState(ctx, api, ctx.Param("id"), http.StatusOK)
	}))

	r.Post(routes.Draft, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.UpdateDraftInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return badRequest(ctx, err)
		}
		payload.SessionID = ctx.Param("id")
		if err := api.Update(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return writeState(ctx, api, payload.SessionID, http.StatusOK)
	}))

	r.Post(routes.Next, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if err := api.Advance(ctx.Context(), commands.AdvanceInput{SessionID: id}); err != nil {
			return respondError(ctx, err)
		}
		return writeState(ctx, api, id, http.StatusOK)
	}))

	r.Post(routes.Back, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if err := api.Back(ctx.Context(), commands.BackInput{SessionID: id}); err != nil {
			return respondError(ctx, err)
		}
		view, err := api.State(ctx.Context(), queries.StateRequest{SessionID: id})
		if onboarding.IsSessionNotFound(err) {
			return ctx.JSON(http.StatusOK, map[string]any{"session_id": id, "closed": true})
		}
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, view)
	}))

	r.Post(routes.ConnectionTest, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		wait, _ := strconv.ParseBool(ctx.Query("wait"))
		if err := api.ConnectionTest(ctx.Context(), commands.ConnectionTestInput{SessionID: id, Wait: wait}); err != nil {
			return respondError(ctx, err)
		}
		status := http.StatusAccepted
		if wait {
			status = http.StatusOK
		}
		return writeState(ctx, api, id, status)
	}))

	r.Post(routes.RetryConnection, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if err := api.RetryConnection(ctx.Context(), commands.ConnectionTestInput{SessionID: id}); err != nil {
			return respondError(ctx, err)
		}
		return writeState(ctx, api, id, http.StatusOK)
	}))

	r.Post(routes.Assistance, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if err := api.Assistance(ctx.Context(), commands.ConnectionTestInput{SessionID: id}); err != nil {
			return respondError(ctx, err)
		}
		return writeState(ctx, api, id, http.StatusAccepted)
	}))

	r.Post(routes.Commercialization, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SetCommercializationInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return badRequest(ctx, err)
		}
		payload.SessionID = ctx.Param("id")
		if err := api.Commercialization(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return writeState(ctx, api, payload.SessionID, http.StatusOK)
	}))

	r.Post(routes.Submit, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		err := api.Submit(ctx.Context(), commands.SubmitInput{SessionID: id})
		var submitErr *onboarding.SubmissionError
		switch {
		case err == nil:
			return writeState(ctx, api, id, http.StatusOK)
		case errors.As(err, &submitErr):
			return writeState(ctx, api, id, http.StatusBadGateway)
		default:
			return respondError(ctx, err)
		}
	}))

	r.Get(routes.Places, router.WrapHandler(func(ctx router.Context) error {
		places, err := api.Places(ctx.Context(), queries.PlacesRequest{SessionID: ctx.Param("id"), Query: ctx.Query("q")})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, places)
	}))

	r.Delete(routes.Close, router.WrapHandler(func(ctx router.Context) error {
		if err := api.Close(ctx.Context(), commands.CloseWizardInput{SessionID: ctx.Param("id")}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusNoContent, map[string]string{"status": "closed"})
	}))

	r.Get(routes.PDF, documentHandler(api, queries.FormatPDF))
	r.Get(routes.XLSX, documentHandler(api, queries.FormatXLSX))
}

func documentHandler(api httpapi.Executor, format string) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		doc, err := api.Document(ctx.Context(), queries.DocumentRequest{SessionID: ctx.Param("id"), Format: format})
		if err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", doc.ContentType)
		ctx.SetHeader("Content-Disposition", `inline; filename="`+doc.Filename+`"`)
		return ctx.Send(doc.Body)
	})
}

func registerFunnel[T any](r router.Router[T], funnel *onboarding.FunnelTelemetry, routes RouteConfig) {
	r.Get(routes.Funnel, router.WrapHandler(func(ctx router.Context) error {
		return ctx.JSON(http.StatusOK, funnel.Counts())
	}))
	r.Get(routes.FunnelChart, router.WrapHandler(func(ctx router.Context) error {
		html, err := funnel.RenderChart(inferLocale(ctx))
		if err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send([]byte(html))
	}))
}

// registerWebSocket streams the events of the wizard named by the "session"
// query parameter.
func registerWebSocket[T any](r router.Router[T], hook *onboarding.BroadcastHook, cfg router.WebSocketConfig, path string) {
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel, err := hook.Subscribe(ws.Query("session"))
		if err != nil {
			_ = ws.WriteJSON(httpapi.Body(err))
			return ws.Close()
		}
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func writeState(ctx router.Context, api httpapi.Executor, id string, status int) error {
	view, err := api.State(ctx.Context(), queries.StateRequest{SessionID: id})
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(status, view)
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		if lang := parseAcceptLanguage(header); lang != "" {
			return lang
		}
	}
	return ""
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func badRequest(ctx router.Context, err error) error {
	return ctx.JSON(http.StatusBadRequest, httpapi.ErrorBody{Error: err.Error()})
}

func respondError(ctx router.Context, err error) error {
	return ctx.JSON(httpapi.StatusFor(err), httpapi.Body(err))
}

func (cfg Config[T]) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	set := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	set(&routes.HTML, "/:id")
	set(&routes.State, "/:id/_state")
	set(&routes.Start, "/sessions")
	set(&routes.Draft, "/:id/draft")
	set(&routes.Next, "/:id/next")
	set(&routes.Back, "/:id/back")
	set(&routes.ConnectionTest, "/:id/connection-test")
	set(&routes.RetryConnection, "/:id/connection-test/retry")
	set(&routes.Assistance, "/:id/assistance")
	set(&routes.Commercialization, "/:id/commercialization")
	set(&routes.Submit, "/:id/submit")
	set(&routes.Places, "/:id/places")
	set(&routes.Close, "/:id")
	set(&routes.PDF, "/:id/payload.pdf")
	set(&routes.XLSX, "/:id/payload.xlsx")
	set(&routes.WebSocket, "/ws")
	set(&routes.Funnel, "/_funnel")
	set(&routes.FunnelChart, "/_funnel/chart")
	return routes
}
