package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-evcharger/components/onboarding"
	"github.com/goliatone/go-evcharger/components/onboarding/commands"
	"github.com/goliatone/go-evcharger/components/onboarding/queries"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubStateQuerier struct {
	view onboarding.View
	err  error
}

func (s *stubStateQuerier) Query(_ context.Context, req queries.StateRequest) (onboarding.View, error) {
	view := s.view
	view.SessionID = req.SessionID
	return view, s.err
}

func TestHandleStartGeneratesSessionID(t *testing.T) {
	start := &stubCommander[onboarding.StartRequest]{}
	api := &Handlers{Start: start, State: &stubStateQuerier{}}
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	rec := httptest.NewRecorder()
	api.HandleStart(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if start.last.SessionID == "" {
		t.Fatalf("expected generated session id")
	}
}

func TestHandleUpdatePropagatesSessionID(t *testing.T) {
	update := &stubCommander[commands.UpdateDraftInput]{}
	api := &Handlers{Update: update, State: &stubStateQuerier{}}
	buf, _ := json.Marshal(commands.UpdateDraftInput{AddImage: "a.jpg"})
	req := httptest.NewRequest(http.MethodPost, "/s1/draft", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleUpdate(rec, req, "s1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if update.last.SessionID != "s1" || update.last.AddImage != "a.jpg" {
		t.Fatalf("unexpected input %+v", update.last)
	}
}

func TestHandleUpdateRejectsBadJSON(t *testing.T) {
	api := &Handlers{Update: &stubCommander[commands.UpdateDraftInput]{}}
	req := httptest.NewRequest(http.MethodPost, "/s1/draft", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	api.HandleUpdate(rec, req, "s1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleNextValidationError(t *testing.T) {
	advance := &stubCommander[commands.AdvanceInput]{err: &onboarding.ValidationError{
		Step:   onboarding.StepIdentify,
		Issues: []onboarding.FieldIssue{{Field: "charger.name", Code: onboarding.IssueRequired}},
	}}
	api := &Handlers{Advance: advance}
	rec := httptest.NewRecorder()
	api.HandleNext(rec, httptest.NewRequest(http.MethodPost, "/s1/next", nil), "s1")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Step != onboarding.StepIdentify || len(body.Issues) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestHandleSubmitFailureReturnsState(t *testing.T) {
	submit := &stubCommander[commands.SubmitInput]{err: &onboarding.SubmissionError{Err: errors.New("down")}}
	api := &Handlers{Submit: submit, State: &stubStateQuerier{view: onboarding.View{Step: onboarding.StepSummary}}}
	rec := httptest.NewRecorder()
	api.HandleSubmit(rec, httptest.NewRequest(http.MethodPost, "/s1/submit", nil), "s1")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var view onboarding.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.SessionID != "s1" || view.Step != onboarding.StepSummary {
		t.Fatalf("expected state in body, got %+v", view)
	}
}

func TestHandleBackAfterExit(t *testing.T) {
	back := &stubCommander[commands.BackInput]{}
	api := &Handlers{Back: back, State: &stubStateQuerier{err: fmt.Errorf("lookup: %w", sessionNotFound(t))}}
	rec := httptest.NewRecorder()
	api.HandleBack(rec, httptest.NewRequest(http.MethodPost, "/s1/back", nil), "s1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["closed"] != true {
		t.Fatalf("expected closed marker, got %v", body)
	}
}

func TestHandleClose(t *testing.T) {
	closeCmd := &stubCommander[commands.CloseWizardInput]{}
	api := &Handlers{Close: closeCmd}
	rec := httptest.NewRecorder()
	api.HandleClose(rec, httptest.NewRequest(http.MethodDelete, "/s1", nil), "s1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if closeCmd.last.SessionID != "s1" {
		t.Fatalf("expected session id propagation")
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{&onboarding.ValidationError{}, http.StatusUnprocessableEntity},
		{onboarding.ErrQRUnreadable, http.StatusUnprocessableEntity},
		{&onboarding.SubmissionError{Err: errors.New("x")}, http.StatusBadGateway},
		{onboarding.ErrWizardClosed, http.StatusGone},
		{onboarding.ErrNotAtSummary, http.StatusConflict},
		{onboarding.ErrSubmissionInFlight, http.StatusConflict},
		{fmt.Errorf("start: %w", onboarding.ErrSessionExists), http.StatusConflict},
		{onboarding.ErrGeoSearchDisabled, http.StatusForbidden},
		{onboarding.ErrGeocoderUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestCommandExecutorRequiresCommanders(t *testing.T) {
	exec := &CommandExecutor{}
	if err := exec.Submit(context.Background(), commands.SubmitInput{}); !errors.Is(err, errNotConfigured) {
		t.Fatalf("expected errNotConfigured, got %v", err)
	}
	if _, err := exec.State(context.Background(), queries.StateRequest{}); !errors.Is(err, errNotConfigured) {
		t.Fatalf("expected errNotConfigured, got %v", err)
	}
}

// sessionNotFound fetches the store's not-found error so the test does not
// depend on its text.
func sessionNotFound(t *testing.T) error {
	t.Helper()
	_, err := onboarding.NewInMemorySessionStore().Get(context.Background(), "missing")
	if !onboarding.IsSessionNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
	return err
}
