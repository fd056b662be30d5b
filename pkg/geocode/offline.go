package geocode

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

// Offline answers from a fixed gazetteer. Reverse lookups name the nearest
// known place or fall back to the formatted coordinates.
type Offline struct {
	Places []onboarding.Place
}

var _ onboarding.Geocoder = Offline{}

func (o Offline) Search(_ context.Context, query string) ([]onboarding.Place, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := []onboarding.Place{}
	if needle == "" {
		return out, nil
	}
	for _, p := range o.Places {
		if strings.Contains(strings.ToLower(p.DisplayName), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

// nearbyKm is how close a known place must be to name a pin.
const nearbyKm = 1.0

func (o Offline) Reverse(_ context.Context, coords onboarding.Coordinates) (onboarding.Place, error) {
	best, bestDist := "", math.Inf(1)
	for _, p := range o.Places {
		if d := haversineKm(coords, p.Coordinates); d < bestDist {
			best, bestDist = p.DisplayName, d
		}
	}
	name := fmt.Sprintf("%.5f, %.5f", coords.Latitude, coords.Longitude)
	if best != "" && bestDist <= nearbyKm {
		name = best
	}
	return onboarding.Place{DisplayName: name, Coordinates: coords}, nil
}

func haversineKm(a, b onboarding.Coordinates) float64 {
	const earthRadiusKm = 6371.0
	rad := math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * rad
	dLon := (b.Longitude - a.Longitude) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*rad)*math.Cos(b.Latitude*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

var errNoGeocoder = errors.New("geocode: no geocoder configured")

// Fallback tries Primary and, on error, Secondary.
type Fallback struct {
	Primary   onboarding.Geocoder
	Secondary onboarding.Geocoder
	Logger    logr.Logger
}

var _ onboarding.Geocoder = Fallback{}

func (f Fallback) Search(ctx context.Context, query string) ([]onboarding.Place, error) {
	if f.Primary != nil {
		places, err := f.Primary.Search(ctx, query)
		if err == nil || f.Secondary == nil || ctx.Err() != nil {
			return places, err
		}
		f.Logger.V(1).Info("geocoder search failed, using fallback", "error", err.Error())
	}
	if f.Secondary == nil {
		return nil, errNoGeocoder
	}
	return f.Secondary.Search(ctx, query)
}

func (f Fallback) Reverse(ctx context.Context, coords onboarding.Coordinates) (onboarding.Place, error) {
	if f.Primary != nil {
		place, err := f.Primary.Reverse(ctx, coords)
		if err == nil || f.Secondary == nil || ctx.Err() != nil {
			return place, err
		}
		f.Logger.V(1).Info("geocoder reverse failed, using fallback", "error", err.Error())
	}
	if f.Secondary == nil {
		return onboarding.Place{}, errNoGeocoder
	}
	return f.Secondary.Reverse(ctx, coords)
}
