package onboarding

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrWizardClosed         = errors.New("onboarding: wizard is closed")
	ErrNotAtSummary         = errors.New("onboarding: submit is only available on the summary step")
	ErrSubmissionInFlight   = errors.New("onboarding: submission already in progress")
	ErrGeoSearchDisabled    = errors.New("onboarding: place search is disabled")
	ErrGeocoderUnavailable  = errors.New("onboarding: geocoder not configured")
	ErrConnectionNotFailed  = errors.New("onboarding: connection test has not failed")
	ErrWrongStep            = errors.New("onboarding: action not available on the current step")
	ErrSessionExists        = errors.New("onboarding: session id already in use")
	errMissingSessionID     = errors.New("onboarding: session id is required")
	errSessionNotFound      = errors.New("onboarding: session not found")
	errPublisherUnavailable = errors.New("onboarding: publisher not configured")
)

// FieldIssue is a single field-level validation failure.
type FieldIssue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	IssueRequired    = "required"
	IssueOutOfRange  = "out_of_range"
	IssueNotNumeric  = "not_numeric"
	IssueInvalidEnum = "invalid_value"
	IssueSchema      = "schema"
	IssueConnection  = "connection_unverified"
)

// ValidationError blocks a step from advancing. It is always recoverable by
// correcting the listed fields.
type ValidationError struct {
	Step   Step         `json:"step"`
	Issues []FieldIssue `json:"issues"`
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "onboarding: validation failed"
	}
	fields := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		fields = append(fields, issue.Field+" ("+issue.Code+")")
	}
	return fmt.Sprintf("onboarding: step %s incomplete: %s", e.Step, strings.Join(fields, ", "))
}

func newValidationError(step Step, issues ...FieldIssue) *ValidationError {
	return &ValidationError{Step: step, Issues: issues}
}

// SubmissionError wraps a failed publish. The payload stays available so it
// can be shown, printed or resubmitted.
type SubmissionError struct {
	Payload Payload
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("onboarding: publish failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsSessionNotFound reports whether err means an unknown session id.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, errSessionNotFound)
}
