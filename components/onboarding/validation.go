package onboarding

import "strings"

// ConnectionStatus is the state of the connection-test state machine.
type ConnectionStatus string

const (
	ConnectionIdle    ConnectionStatus = "idle"
	ConnectionTesting ConnectionStatus = "testing"
	ConnectionFailed  ConnectionStatus = "failed"
	ConnectionSuccess ConnectionStatus = "success"
)

// GateInput is everything a step gate may look at.
type GateInput struct {
	Draft      Draft
	Connection ConnectionStatus
	Policy     Policy
}

// CanAdvance reports whether step may move forward for the given state.
func CanAdvance(in GateInput, step Step) bool {
	return step.Valid() && len(StepIssues(in, step)) == 0
}

// StepIssues lists why step cannot advance. It has no side effects.
func StepIssues(in GateInput, step Step) []FieldIssue {
	switch step {
	case StepIdentify:
		return ValidateCharger(in.Draft.Charger, in.Policy)
	case StepNetwork:
		return nil
	case StepConnection:
		return ValidateConnection(in.Connection, in.Policy)
	case StepLocation:
		return ValidateLocation(in.Draft.Location)
	case StepCommercialization:
		return ValidateCommercialization(in.Draft.Commercialization)
	case StepOperational:
		return ValidateOperational(in.Draft.OperationalDetails)
	case StepSummary:
		return nil
	}
	return []FieldIssue{{Field: "step", Code: IssueOutOfRange, Message: "unknown step"}}
}

// ValidateCharger checks the identify step.
func ValidateCharger(c ChargerSection, policy Policy) []FieldIssue {
	var issues []FieldIssue
	issues = appendRequired(issues, "charger.name", c.Name)
	issues = appendRequired(issues, "charger.serialNumber", c.SerialNumber)
	issues = appendRequired(issues, "charger.pin", c.PIN)
	if policy.RequirePhoto && len(compactRefs(c.ImageRefs)) == 0 {
		issues = append(issues, FieldIssue{Field: "charger.imageRefs", Code: IssueRequired, Message: "add at least one photo of the charger"})
	}
	return issues
}

// ValidateConnection checks the connection step.
func ValidateConnection(status ConnectionStatus, policy Policy) []FieldIssue {
	if status == ConnectionSuccess {
		return nil
	}
	if status == ConnectionFailed && policy.AllowContinueOnConnectionFail {
		return nil
	}
	return []FieldIssue{{Field: "connection.verified", Code: IssueConnection, Message: "run the connection test first"}}
}

// ValidateLocation checks the location step.
func ValidateLocation(l LocationSection) []FieldIssue {
	return l.Coordinates.issues()
}

// ValidateCommercialization checks the commercialization step.
func ValidateCommercialization(c CommercialSection) []FieldIssue {
	if c.Mode.Valid() {
		return nil
	}
	return []FieldIssue{{Field: "commercialization.mode", Code: IssueInvalidEnum, Message: "choose private or commercial"}}
}

// ValidateOperational checks the operational details step. Empty labels are
// allowed here; assembly falls back to defaults.
func ValidateOperational(o OperationalSection) []FieldIssue {
	if o.PricingModel.Valid() {
		return nil
	}
	return []FieldIssue{{Field: "operationalDetails.pricingModel", Code: IssueInvalidEnum, Message: "choose a pricing model"}}
}

func appendRequired(issues []FieldIssue, field, value string) []FieldIssue {
	if strings.TrimSpace(value) != "" {
		return issues
	}
	return append(issues, FieldIssue{Field: field, Code: IssueRequired, Message: field + " is required"})
}
