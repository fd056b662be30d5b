package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"io"
)

// DefaultTemplate is the page template used when none is configured.
const DefaultTemplate = "wizard.html"

type stateReader interface {
	State(ctx context.Context, id string) (View, error)
}

// ControllerOptions wires the controller.
type ControllerOptions struct {
	Service  stateReader
	Renderer Renderer
	Template string
}

// Controller renders wizard pages.
type Controller struct {
	service  stateReader
	renderer Renderer
	template string
}

// NewController builds a controller.
func NewController(opts ControllerOptions) *Controller {
	tpl := opts.Template
	if tpl == "" {
		tpl = DefaultTemplate
	}
	return &Controller{service: opts.Service, renderer: opts.Renderer, template: tpl}
}

// RenderTemplate writes the page for session id in locale to out.
func (c *Controller) RenderTemplate(ctx context.Context, id, locale string, out io.Writer) error {
	if c.renderer == nil {
		return errors.New("onboarding: renderer not configured")
	}
	data, err := c.Data(ctx, id, locale)
	if err != nil {
		return err
	}
	_, err = c.renderer.Render(c.template, data, out)
	return err
}

// Data builds the template context for a session.
func (c *Controller) Data(ctx context.Context, id, locale string) (map[string]any, error) {
	if c.service == nil {
		return nil, errors.New("onboarding: controller requires a service")
	}
	view, err := c.service.State(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewTemplateData(view, locale), nil
}

func viewTemplateData(view View, locale string) map[string]any {
	steps := make([]map[string]any, 0, TotalSteps)
	current := map[string]any{}
	for _, def := range StepDefinitions() {
		entry := map[string]any{
			"number":  int(def.Step),
			"slug":    def.Step.Slug(),
			"title":   def.TitleForLocale(locale),
			"current": def.Step == view.Step,
			"done":    def.Step < view.Step,
		}
		steps = append(steps, entry)
		if def.Step == view.Step {
			current = entry
		}
	}
	issues := make([]map[string]any, 0, len(view.Issues))
	for _, issue := range view.Issues {
		issues = append(issues, map[string]any{"field": issue.Field, "code": issue.Code, "message": issue.Message})
	}
	notices := make([]map[string]any, 0, len(view.Notices))
	for _, n := range view.Notices {
		notices = append(notices, map[string]any{"level": string(n.Level), "code": n.Code, "message": n.Message})
	}
	data := map[string]any{
		"session_id":  view.SessionID,
		"locale":      locale,
		"step":        current,
		"steps":       steps,
		"total_steps": view.TotalSteps,
		"can_advance": view.CanAdvance,
		"issues":      issues,
		"notices":     notices,
		"draft":       draftTemplateData(view.Draft),
		"connection": map[string]any{
			"status":      string(view.Connection.Status),
			"attempts":    view.Connection.Attempts,
			"diagnostics": view.Connection.Diagnostics,
		},
		"policy": map[string]any{
			"require_photo":   view.Policy.RequirePhoto,
			"allow_continue":  view.Policy.AllowContinueOnConnectionFail,
			"geo_search":      view.Policy.EnableGeoSearch,
			"api_post":        view.Policy.AttemptAPIPostOnPublish,
			"warn_commercial": view.Policy.CommercialLimitWarnOnly,
		},
		"closed": view.Closed,
	}
	if view.Step == StepSummary {
		payload := AssemblePayload(view.DraftID, view.Draft)
		if raw, err := json.MarshalIndent(payload, "", "  "); err == nil {
			data["payload_json"] = string(raw)
		}
	}
	if view.Submission != nil {
		data["submission"] = map[string]any{
			"outcome": string(view.Submission.Outcome),
			"error":   view.Submission.Error,
		}
	}
	return data
}

func draftTemplateData(d Draft) map[string]any {
	return map[string]any{
		"name":               d.Charger.Name,
		"serial_number":      d.Charger.SerialNumber,
		"pin":                d.Charger.PIN,
		"image_refs":         d.Charger.ImageRefs,
		"server_url":         d.Network.ServerURL,
		"station_id":         d.Network.StationID,
		"station_password":   d.Network.StationPassword,
		"verified":           d.Connection.Verified,
		"latitude":           d.Location.Coordinates.Latitude,
		"longitude":          d.Location.Coordinates.Longitude,
		"display_name":       d.Location.DisplayName,
		"access_notes":       d.Location.AccessNotes,
		"mode":               string(d.Commercialization.Mode),
		"operator_assigned":  d.OperationalDetails.OperatorAssigned,
		"pricing_model":      string(d.OperationalDetails.PricingModel),
		"availability_label": d.OperationalDetails.AvailabilityLabel,
		"access_label":       d.OperationalDetails.AccessLabel,
	}
}
