package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-evcharger/components/onboarding"
	"github.com/goliatone/go-evcharger/components/onboarding/commands"
	"github.com/goliatone/go-evcharger/components/onboarding/queries"
	"github.com/google/uuid"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Start             gocommand.Commander[onboarding.StartRequest]
	Close             gocommand.Commander[commands.CloseWizardInput]
	Advance           gocommand.Commander[commands.AdvanceInput]
	Back              gocommand.Commander[commands.BackInput]
	Update            gocommand.Commander[commands.UpdateDraftInput]
	Commercialization gocommand.Commander[commands.SetCommercializationInput]
	ConnectionTest    gocommand.Commander[commands.ConnectionTestInput]
	RetryConnection   gocommand.Commander[commands.ConnectionTestInput]
	Assistance        gocommand.Commander[commands.ConnectionTestInput]
	Submit            gocommand.Commander[commands.SubmitInput]

	State    gocommand.Querier[queries.StateRequest, onboarding.View]
	Places   gocommand.Querier[queries.PlacesRequest, []onboarding.Place]
	Document gocommand.Querier[queries.DocumentRequest, queries.Document]
}

func (h *Handlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	var payload onboarding.StartRequest
	if err := decodeOptional(r.Body, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if payload.SessionID == "" {
		payload.SessionID = uuid.NewString()
	}
	if err := h.Start.Execute(r.Context(), payload); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, payload.SessionID, http.StatusCreated)
}

func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request, sessionID string) {
	h.writeState(w, r, sessionID, http.StatusOK)
}

func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload commands.UpdateDraftInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.SessionID = sessionID
	if err := h.Update.Execute(r.Context(), payload); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, sessionID, http.StatusOK)
}

func (h *Handlers) HandleNext(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.Advance.Execute(r.Context(), commands.AdvanceInput{SessionID: sessionID}); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, sessionID, http.StatusOK)
}

// HandleBack answers with the new state, or with a closed marker when the
// installer backed out of the first step.
func (h *Handlers) HandleBack(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.Back.Execute(r.Context(), commands.BackInput{SessionID: sessionID}); err != nil {
		WriteError(w, err)
		return
	}
	view, err := h.State.Query(r.Context(), queries.StateRequest{SessionID: sessionID})
	if onboarding.IsSessionNotFound(err) {
		writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "closed": true})
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleCommercialization(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload commands.SetCommercializationInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.SessionID = sessionID
	if err := h.Commercialization.Execute(r.Context(), payload); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, sessionID, http.StatusOK)
}

// HandleConnectionTest starts the probe. With ?wait=true the response
// carries the settled state, otherwise 202 and the testing state.
func (h *Handlers) HandleConnectionTest(w http.ResponseWriter, r *http.Request, sessionID string) {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if err := h.ConnectionTest.Execute(r.Context(), commands.ConnectionTestInput{SessionID: sessionID, Wait: wait}); err != nil {
		WriteError(w, err)
		return
	}
	status := http.StatusAccepted
	if wait {
		status = http.StatusOK
	}
	h.writeState(w, r, sessionID, status)
}

func (h *Handlers) HandleRetryConnection(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.RetryConnection.Execute(r.Context(), commands.ConnectionTestInput{SessionID: sessionID}); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, sessionID, http.StatusOK)
}

func (h *Handlers) HandleAssistance(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.Assistance.Execute(r.Context(), commands.ConnectionTestInput{SessionID: sessionID}); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, sessionID, http.StatusAccepted)
}

// HandleSubmit publishes the payload. A failed publish answers 502 with the
// full state so the payload stays visible.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request, sessionID string) {
	err := h.Submit.Execute(r.Context(), commands.SubmitInput{SessionID: sessionID})
	var submitErr *onboarding.SubmissionError
	switch {
	case err == nil:
		h.writeState(w, r, sessionID, http.StatusOK)
	case errors.As(err, &submitErr):
		h.writeState(w, r, sessionID, http.StatusBadGateway)
	default:
		WriteError(w, err)
	}
}

func (h *Handlers) HandleClose(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.Close.Execute(r.Context(), commands.CloseWizardInput{SessionID: sessionID}); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandlePlaces(w http.ResponseWriter, r *http.Request, sessionID string) {
	places, err := h.Places.Query(r.Context(), queries.PlacesRequest{SessionID: sessionID, Query: r.URL.Query().Get("q")})
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, places)
}

func (h *Handlers) HandleDocument(w http.ResponseWriter, r *http.Request, sessionID, format string) {
	doc, err := h.Document.Query(r.Context(), queries.DocumentRequest{SessionID: sessionID, Format: format})
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+doc.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

func (h *Handlers) writeState(w http.ResponseWriter, r *http.Request, sessionID string, status int) {
	view, err := h.State.Query(r.Context(), queries.StateRequest{SessionID: sessionID})
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, status, view)
}

func decodeOptional(body io.Reader, target any) error {
	if body == nil {
		return nil
	}
	err := json.NewDecoder(body).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
