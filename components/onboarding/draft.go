package onboarding

import (
	"strings"
)

// NewDraft builds an empty draft seeded with the network profile and the
// fallback location.
func NewDraft(profile NetworkProfile, fallback LocationSection) Draft {
	if !fallback.Coordinates.Valid() {
		fallback = DefaultFallbackLocation
	}
	return Draft{
		Charger: ChargerSection{ImageRefs: []string{}},
		Network: NetworkSection{
			ServerURL:       profile.ServerURL,
			StationID:       profile.StationID,
			StationPassword: profile.StationPassword,
		},
		Location:          fallback,
		Commercialization: CommercialSection{Mode: ModePrivate},
		OperationalDetails: OperationalSection{
			PricingModel:      PricingPerEnergy,
			AvailabilityLabel: DefaultAvailabilityLabel,
			AccessLabel:       DefaultAccessLabel,
		},
	}
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	out := d
	out.Charger.ImageRefs = append([]string{}, d.Charger.ImageRefs...)
	return out
}

// Patch is a typed partial update. Nil fields are left untouched. Network and
// connection sections are owned by the wizard and cannot be patched.
type Patch struct {
	Charger            *ChargerPatch     `json:"charger,omitempty"`
	Location           *LocationPatch    `json:"location,omitempty"`
	Commercialization  *CommercialPatch  `json:"commercialization,omitempty"`
	OperationalDetails *OperationalPatch `json:"operationalDetails,omitempty"`
}

// ChargerPatch updates identity fields. ImageRefs replaces the whole list.
type ChargerPatch struct {
	Name         *string   `json:"name,omitempty"`
	SerialNumber *string   `json:"serialNumber,omitempty"`
	PIN          *string   `json:"pin,omitempty"`
	ImageRefs    *[]string `json:"imageRefs,omitempty"`
}

// LocationPatch updates the installation site.
type LocationPatch struct {
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	DisplayName *string      `json:"displayName,omitempty"`
	AccessNotes *string      `json:"accessNotes,omitempty"`
}

// CommercialPatch updates the commercialization choice.
type CommercialPatch struct {
	Mode *CommercialMode `json:"mode,omitempty"`
}

// OperationalPatch updates pricing and availability.
type OperationalPatch struct {
	OperatorAssigned  *bool         `json:"operatorAssigned,omitempty"`
	PricingModel      *PricingModel `json:"pricingModel,omitempty"`
	AvailabilityLabel *string       `json:"availabilityLabel,omitempty"`
	AccessLabel       *string       `json:"accessLabel,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Charger == nil && p.Location == nil && p.Commercialization == nil && p.OperationalDetails == nil
}

// ApplyPatch returns a new draft with the patch applied. The input draft is
// never modified. Out-of-range coordinates and unknown enum values are
// rejected with a *ValidationError and the draft is returned unchanged.
func ApplyPatch(draft Draft, patch Patch) (Draft, error) {
	if issues := patchIssues(patch); len(issues) > 0 {
		return draft, newValidationError(patchStep(patch), issues...)
	}
	out := draft.Clone()
	if c := patch.Charger; c != nil {
		setString(&out.Charger.Name, c.Name)
		setString(&out.Charger.SerialNumber, c.SerialNumber)
		setString(&out.Charger.PIN, c.PIN)
		if c.ImageRefs != nil {
			out.Charger.ImageRefs = compactRefs(*c.ImageRefs)
		}
	}
	if l := patch.Location; l != nil {
		if l.Coordinates != nil {
			out.Location.Coordinates = *l.Coordinates
		}
		setString(&out.Location.DisplayName, l.DisplayName)
		setString(&out.Location.AccessNotes, l.AccessNotes)
	}
	if c := patch.Commercialization; c != nil && c.Mode != nil {
		out.Commercialization.Mode = *c.Mode
	}
	if o := patch.OperationalDetails; o != nil {
		if o.OperatorAssigned != nil {
			out.OperationalDetails.OperatorAssigned = *o.OperatorAssigned
		}
		if o.PricingModel != nil {
			out.OperationalDetails.PricingModel = *o.PricingModel
		}
		setString(&out.OperationalDetails.AvailabilityLabel, o.AvailabilityLabel)
		setString(&out.OperationalDetails.AccessLabel, o.AccessLabel)
	}
	return out, nil
}

func patchIssues(patch Patch) []FieldIssue {
	var issues []FieldIssue
	if l := patch.Location; l != nil && l.Coordinates != nil {
		issues = append(issues, l.Coordinates.issues()...)
	}
	if c := patch.Commercialization; c != nil && c.Mode != nil && !c.Mode.Valid() {
		issues = append(issues, FieldIssue{Field: "commercialization.mode", Code: IssueInvalidEnum, Message: "mode must be private or commercial"})
	}
	if o := patch.OperationalDetails; o != nil && o.PricingModel != nil && !o.PricingModel.Valid() {
		issues = append(issues, FieldIssue{Field: "operationalDetails.pricingModel", Code: IssueInvalidEnum, Message: "pricing model must be perEnergy or perDuration"})
	}
	return issues
}

func patchStep(patch Patch) Step {
	switch {
	case patch.Location != nil && patch.Location.Coordinates != nil:
		return StepLocation
	case patch.Commercialization != nil:
		return StepCommercialization
	case patch.OperationalDetails != nil:
		return StepOperational
	default:
		return StepIdentify
	}
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

func compactRefs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref = strings.TrimSpace(ref); ref != "" {
			out = append(out, ref)
		}
	}
	return out
}

// Valid reports whether m is a known mode.
func (m CommercialMode) Valid() bool {
	return m == ModePrivate || m == ModeCommercial
}

// Valid reports whether p is a known pricing model.
func (p PricingModel) Valid() bool {
	return p == PricingPerEnergy || p == PricingPerDuration
}
