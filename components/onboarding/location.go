package onboarding

import (
	"context"
	"fmt"
	"strings"
)

// SearchPlaces resolves free text into candidate places. Results are clamped
// into geographic bounds.
func (w *Wizard) SearchPlaces(ctx context.Context, query string) ([]Place, error) {
	if w.Closed() {
		return nil, ErrWizardClosed
	}
	if !w.policy.EnableGeoSearch {
		return nil, ErrGeoSearchDisabled
	}
	if w.geocoder == nil {
		return nil, ErrGeocoderUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []Place{}, nil
	}
	places, err := w.geocoder.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("onboarding: search places: %w", err)
	}
	out := make([]Place, 0, len(places))
	for _, place := range places {
		place.Coordinates = place.Coordinates.Clamp()
		out = append(out, place)
	}
	w.telemetry.Record(ctx, "onboarding.location.searched", map[string]any{
		"session_id": w.id,
		"results":    len(out),
	})
	return out, nil
}

// SelectPlace stores a chosen search result as the installation site.
func (w *Wizard) SelectPlace(ctx context.Context, place Place) (Draft, error) {
	coords := place.Coordinates.Clamp()
	name := place.DisplayName
	return w.Update(ctx, Patch{Location: &LocationPatch{Coordinates: &coords, DisplayName: &name}})
}

// PinLocation stores a map position. The display name is resolved through
// the geocoder when one is configured; a lookup failure keeps the previous
// name and surfaces a notice instead of failing.
func (w *Wizard) PinLocation(ctx context.Context, coords Coordinates) (Draft, error) {
	coords = coords.Clamp()
	patch := Patch{Location: &LocationPatch{Coordinates: &coords}}
	if w.geocoder != nil {
		place, err := w.geocoder.Reverse(ctx, coords)
		switch {
		case err != nil:
			w.logger.V(1).Info("reverse geocoding failed", "error", err.Error())
			w.notify(ctx, Notice{Level: NoticeWarning, Code: "reverse_geocode_failed", Message: "Could not look up an address for this position."})
		case strings.TrimSpace(place.DisplayName) != "":
			patch.Location.DisplayName = &place.DisplayName
		}
	}
	return w.Update(ctx, patch)
}
