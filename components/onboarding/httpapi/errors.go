package httpapi

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string                  `json:"error"`
	Step   onboarding.Step         `json:"step,omitempty"`
	Issues []onboarding.FieldIssue `json:"issues,omitempty"`
}

// StatusFor maps wizard errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		validation *onboarding.ValidationError
		submission *onboarding.SubmissionError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.Is(err, onboarding.ErrQRUnreadable):
		return http.StatusUnprocessableEntity
	case errors.As(err, &submission):
		return http.StatusBadGateway
	case onboarding.IsSessionNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, onboarding.ErrWizardClosed):
		return http.StatusGone
	case errors.Is(err, onboarding.ErrNotAtSummary),
		errors.Is(err, onboarding.ErrWrongStep),
		errors.Is(err, onboarding.ErrConnectionNotFailed),
		errors.Is(err, onboarding.ErrSubmissionInFlight),
		errors.Is(err, onboarding.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, onboarding.ErrGeoSearchDisabled):
		return http.StatusForbidden
	case errors.Is(err, onboarding.ErrGeocoderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Body builds the error payload for err.
func Body(err error) ErrorBody {
	body := ErrorBody{Error: err.Error()}
	var validation *onboarding.ValidationError
	if errors.As(err, &validation) {
		body.Step = validation.Step
		body.Issues = validation.Issues
	}
	return body
}

// WriteError writes err as JSON with the matching status.
func WriteError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), Body(err))
}
