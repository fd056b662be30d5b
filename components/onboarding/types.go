package onboarding

import (
	"context"
	"time"
)

// Step identifies a wizard step. Valid values are StepIdentify..StepSummary.
type Step int

const (
	StepIdentify Step = iota + 1
	StepNetwork
	StepConnection
	StepLocation
	StepCommercialization
	StepOperational
	StepSummary
)

// TotalSteps is the fixed length of the onboarding flow.
const TotalSteps = int(StepSummary)

// CommercialMode selects how the charger is offered.
type CommercialMode string

const (
	ModePrivate    CommercialMode = "private"
	ModeCommercial CommercialMode = "commercial"
)

// PricingModel selects how commercial sessions are billed.
type PricingModel string

const (
	PricingPerEnergy   PricingModel = "perEnergy"
	PricingPerDuration PricingModel = "perDuration"
)

const (
	DefaultAvailabilityLabel = "24/7"
	DefaultAccessLabel       = "Public"
)

// Draft is the in-memory record accumulated across wizard steps.
type Draft struct {
	Charger            ChargerSection     `json:"charger"`
	Network            NetworkSection     `json:"network"`
	Connection         ConnectionSection  `json:"connection"`
	Location           LocationSection    `json:"location"`
	Commercialization  CommercialSection  `json:"commercialization"`
	OperationalDetails OperationalSection `json:"operationalDetails"`
}

// ChargerSection identifies the physical charger.
type ChargerSection struct {
	Name         string   `json:"name"`
	SerialNumber string   `json:"serialNumber"`
	PIN          string   `json:"pin"`
	ImageRefs    []string `json:"imageRefs"`
}

// NetworkSection holds the OCPP endpoint shown to the installer. Display-only.
type NetworkSection struct {
	ServerURL       string `json:"serverUrl"`
	StationID       string `json:"stationId"`
	StationPassword string `json:"stationPassword"`
}

// ConnectionSection records the outcome of the connection test.
type ConnectionSection struct {
	Verified bool `json:"verified"`
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// LocationSection describes where the charger is installed.
type LocationSection struct {
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
	DisplayName string      `json:"displayName" yaml:"display_name"`
	AccessNotes string      `json:"accessNotes" yaml:"access_notes,omitempty"`
}

// CommercialSection captures the commercialization choice.
type CommercialSection struct {
	Mode CommercialMode `json:"mode"`
}

// OperationalSection captures pricing and availability settings.
type OperationalSection struct {
	OperatorAssigned  bool         `json:"operatorAssigned"`
	PricingModel      PricingModel `json:"pricingModel"`
	AvailabilityLabel string       `json:"availabilityLabel"`
	AccessLabel       string       `json:"accessLabel"`
}

// Payload is the immutable snapshot handed off at the summary step.
type Payload struct {
	DraftID            string             `json:"draftId"`
	Charger            ChargerSection     `json:"charger"`
	Network            NetworkSection     `json:"network"`
	Connection         ConnectionSection  `json:"connection"`
	Location           LocationSection    `json:"location"`
	Commercialization  CommercialSection  `json:"commercialization"`
	OperationalDetails OperationalSection `json:"operationalDetails"`
}

// NetworkProfile is the OCPP endpoint assigned to newly onboarded chargers.
type NetworkProfile struct {
	ServerURL       string `json:"server_url" yaml:"server_url"`
	StationID       string `json:"station_id" yaml:"station_id"`
	StationPassword string `json:"station_password" yaml:"station_password"`
}

// Place is a resolved location candidate.
type Place struct {
	DisplayName string      `json:"displayName"`
	Coordinates Coordinates `json:"coordinates"`
}

// Publisher submits an assembled payload to the backend.
type Publisher interface {
	Publish(ctx context.Context, payload Payload) (PublishReceipt, error)
}

// PublishReceipt is what the backend returns for a created charger.
type PublishReceipt struct {
	ChargerID string    `json:"charger_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountInspector reports facts about the signed-in account.
type AccountInspector interface {
	CommercialChargerCount(ctx context.Context) (int, error)
}

// Geocoder resolves free text or map positions into places.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]Place, error)
	Reverse(ctx context.Context, coords Coordinates) (Place, error)
}

// EventHook notifies transports (REST/WebSocket) about wizard changes.
type EventHook interface {
	WizardUpdated(ctx context.Context, event Event) error
}

// NoticeLevel grades a transient notification.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient, dismissible message surfaced to the user.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

// Event describes a wizard change that transports might care about.
type Event struct {
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Step      Step      `json:"step"`
	Notice    *Notice   `json:"notice,omitempty"`
	Payload   *Payload  `json:"payload,omitempty"`
	Outcome   Outcome   `json:"outcome,omitempty"`
	At        time.Time `json:"at"`
}

// Transition reports the effect of a next/back action.
type Transition struct {
	From   Step `json:"from"`
	To     Step `json:"to"`
	Exited bool `json:"exited,omitempty"`
}

// Moved reports whether the step index changed.
func (t Transition) Moved() bool {
	return t.From != t.To
}
