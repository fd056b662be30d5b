package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-evcharger/components/onboarding"
)

// UpdateDraftInput edits the draft. Exactly one way of editing is used per
// call: a patch, an image change, a scanned QR code or a location choice.
type UpdateDraftInput struct {
	SessionID   string                  `json:"session_id"`
	Patch       *onboarding.Patch       `json:"patch,omitempty"`
	AddImage    string                  `json:"add_image,omitempty"`
	RemoveImage string                  `json:"remove_image,omitempty"`
	QR          string                  `json:"qr,omitempty"`
	Place       *onboarding.Place       `json:"place,omitempty"`
	Pin         *onboarding.Coordinates `json:"pin,omitempty"`
}

var errEmptyUpdate = errors.New("update draft: nothing to change")

type draftService interface {
	Update(ctx context.Context, id string, patch onboarding.Patch) error
	AddImage(ctx context.Context, id, ref string) error
	RemoveImage(ctx context.Context, id, ref string) error
	ApplyQR(ctx context.Context, id, text string) error
	SelectPlace(ctx context.Context, id string, place onboarding.Place) error
	PinLocation(ctx context.Context, id string, coords onboarding.Coordinates) error
}

// UpdateDraftCommand routes draft edits to the matching wizard operation.
type UpdateDraftCommand struct {
	service   draftService
	telemetry Telemetry
}

// NewUpdateDraftCommand creates a command instance.
func NewUpdateDraftCommand(service draftService, telemetry Telemetry) *UpdateDraftCommand {
	return &UpdateDraftCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateDraftInput] = (*UpdateDraftCommand)(nil)

func (c *UpdateDraftCommand) Execute(ctx context.Context, msg UpdateDraftInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	var (
		err  error
		kind string
	)
	switch {
	case msg.Patch != nil && !msg.Patch.Empty():
		kind = "patch"
		err = c.service.Update(ctx, msg.SessionID, *msg.Patch)
	case strings.TrimSpace(msg.AddImage) != "":
		kind = "add_image"
		err = c.service.AddImage(ctx, msg.SessionID, msg.AddImage)
	case strings.TrimSpace(msg.RemoveImage) != "":
		kind = "remove_image"
		err = c.service.RemoveImage(ctx, msg.SessionID, msg.RemoveImage)
	case strings.TrimSpace(msg.QR) != "":
		kind = "qr"
		err = c.service.ApplyQR(ctx, msg.SessionID, msg.QR)
	case msg.Place != nil:
		kind = "place"
		err = c.service.SelectPlace(ctx, msg.SessionID, *msg.Place)
	case msg.Pin != nil:
		kind = "pin"
		err = c.service.PinLocation(ctx, msg.SessionID, *msg.Pin)
	default:
		return errEmptyUpdate
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "onboarding.command.update", map[string]any{
		"session_id": msg.SessionID,
		"kind":       kind,
	})
	return nil
}

// SetCommercializationInput picks the commercialization mode.
type SetCommercializationInput struct {
	SessionID string                    `json:"session_id"`
	Mode      onboarding.CommercialMode `json:"mode"`
	// OpenAggregator follows the aggregator link instead of changing mode.
	OpenAggregator bool `json:"open_aggregator,omitempty"`
}

type commercialService interface {
	SetCommercialization(ctx context.Context, id string, mode onboarding.CommercialMode) error
	OpenAggregatorLink(ctx context.Context, id string) error
}

// SetCommercializationCommand wraps the commercialization step actions.
type SetCommercializationCommand struct {
	service   commercialService
	telemetry Telemetry
}

// NewSetCommercializationCommand creates a command instance.
func NewSetCommercializationCommand(service commercialService, telemetry Telemetry) *SetCommercializationCommand {
	return &SetCommercializationCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetCommercializationInput] = (*SetCommercializationCommand)(nil)

func (c *SetCommercializationCommand) Execute(ctx context.Context, msg SetCommercializationInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	if msg.OpenAggregator {
		return c.service.OpenAggregatorLink(ctx, msg.SessionID)
	}
	if err := c.service.SetCommercialization(ctx, msg.SessionID, msg.Mode); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "onboarding.command.commercialization", map[string]any{
		"session_id": msg.SessionID,
		"mode":       string(msg.Mode),
	})
	return nil
}
