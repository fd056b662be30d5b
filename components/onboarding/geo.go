package onboarding

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	minLatitude  = -90.0
	maxLatitude  = 90.0
	minLongitude = -180.0
	maxLongitude = 180.0
)

// DefaultFallbackLocation is used when the installer never moves the pin.
var DefaultFallbackLocation = LocationSection{
	Coordinates: Coordinates{Latitude: 40.4168, Longitude: -3.7038},
	DisplayName: "Puerta del Sol, Madrid",
}

// Valid reports whether both components are finite and within geographic bounds.
func (c Coordinates) Valid() bool {
	return len(c.issues()) == 0
}

func (c Coordinates) issues() []FieldIssue {
	var issues []FieldIssue
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		issues = append(issues, FieldIssue{Field: "location.coordinates.latitude", Code: IssueNotNumeric, Message: "latitude must be a number"})
	} else if c.Latitude < minLatitude || c.Latitude > maxLatitude {
		issues = append(issues, FieldIssue{Field: "location.coordinates.latitude", Code: IssueOutOfRange, Message: "latitude must be between -90 and 90"})
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		issues = append(issues, FieldIssue{Field: "location.coordinates.longitude", Code: IssueNotNumeric, Message: "longitude must be a number"})
	} else if c.Longitude < minLongitude || c.Longitude > maxLongitude {
		issues = append(issues, FieldIssue{Field: "location.coordinates.longitude", Code: IssueOutOfRange, Message: "longitude must be between -180 and 180"})
	}
	return issues
}

// Clamp pins finite values into bounds. Non-finite components are replaced by
// the fallback location.
func (c Coordinates) Clamp() Coordinates {
	out := c
	if math.IsNaN(out.Latitude) || math.IsInf(out.Latitude, 0) {
		out.Latitude = DefaultFallbackLocation.Coordinates.Latitude
	}
	if math.IsNaN(out.Longitude) || math.IsInf(out.Longitude, 0) {
		out.Longitude = DefaultFallbackLocation.Coordinates.Longitude
	}
	out.Latitude = math.Max(minLatitude, math.Min(maxLatitude, out.Latitude))
	out.Longitude = math.Max(minLongitude, math.Min(maxLongitude, out.Longitude))
	return out
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.5f, %.5f", c.Latitude, c.Longitude)
}

// ParseCoordinates converts form input into coordinates, rejecting
// non-numeric and out-of-range values.
func ParseCoordinates(latText, lonText string) (Coordinates, error) {
	var issues []FieldIssue
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		issues = append(issues, FieldIssue{Field: "location.coordinates.latitude", Code: IssueNotNumeric, Message: "latitude must be a number"})
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		issues = append(issues, FieldIssue{Field: "location.coordinates.longitude", Code: IssueNotNumeric, Message: "longitude must be a number"})
	}
	if len(issues) > 0 {
		return Coordinates{}, newValidationError(StepLocation, issues...)
	}
	coords := Coordinates{Latitude: lat, Longitude: lon}
	if issues := coords.issues(); len(issues) > 0 {
		return Coordinates{}, newValidationError(StepLocation, issues...)
	}
	return coords, nil
}
