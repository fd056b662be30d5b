package onboarding

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/goliatone/go-evcharger/pkg/activity"
	"github.com/xuri/excelize/v2"
)

type stubRenderer struct {
	lastTemplate string
	lastPayload  map[string]any
	err          error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.lastTemplate = name
	if payload, ok := data.(map[string]any); ok {
		r.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("<html></html>"))
	}
	return "<html></html>", r.err
}

func TestControllerRenderTemplate(t *testing.T) {
	svc := newTestService(t, Options{})
	w, err := svc.Start(context.Background(), StartRequest{SessionID: "page"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Close()
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{Service: svc, Renderer: renderer})

	var buf bytes.Buffer
	if err := controller.RenderTemplate(context.Background(), "page", "es", &buf); err != nil {
		t.Fatalf("RenderTemplate returned error: %v", err)
	}
	if renderer.lastTemplate != DefaultTemplate {
		t.Fatalf("expected default template, got %s", renderer.lastTemplate)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected rendered output")
	}
	step := renderer.lastPayload["step"].(map[string]any)
	if step["slug"] != "identify-charger" || step["title"] != "Identifica tu cargador" {
		t.Fatalf("unexpected step data %+v", step)
	}
	if _, ok := renderer.lastPayload["payload_json"]; ok {
		t.Fatalf("payload is only rendered on the summary step")
	}
}

func TestControllerRequiresCollaborators(t *testing.T) {
	if err := NewController(ControllerOptions{}).RenderTemplate(context.Background(), "x", "", io.Discard); err == nil {
		t.Fatalf("expected renderer error")
	}
	if _, err := NewController(ControllerOptions{Renderer: &stubRenderer{}}).Data(context.Background(), "x", ""); err == nil {
		t.Fatalf("expected service error")
	}
}

func TestControllerSummaryIncludesPayload(t *testing.T) {
	w := newTestWizard(t, Options{})
	walkToSummary(t, w)
	data := viewTemplateData(w.Snapshot(), "en")
	raw, ok := data["payload_json"].(string)
	if !ok || !bytes.Contains([]byte(raw), []byte(w.DraftID())) {
		t.Fatalf("expected payload json with draft id, got %v", data["payload_json"])
	}
}

func TestBuildPayloadDocuments(t *testing.T) {
	w := newTestWizard(t, Options{Network: NetworkProfile{StationPassword: "do-not-print"}})
	walkToSummary(t, w)
	payload := w.Payload()

	pdf, err := BuildPayloadPDF(payload, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("BuildPayloadPDF returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected a pdf document")
	}

	xlsx, err := BuildPayloadXLSX(payload)
	if err != nil {
		t.Fatalf("BuildPayloadXLSX returned error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(xlsx))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	serial, err := f.GetCellValue("charger", "B4")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if serial != "SN-001" {
		t.Fatalf("expected serial in B4, got %q", serial)
	}
	rows, err := f.GetRows("charger")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	for _, row := range rows {
		for _, cell := range row {
			if cell == "do-not-print" {
				t.Fatalf("station password must not be exported")
			}
		}
	}
}

func TestActivityHookEmitsSubmissions(t *testing.T) {
	var got []activity.Event
	emitter := activity.NewEmitter(activity.Hooks{activity.HookFunc(func(_ context.Context, evt activity.Event) error {
		got = append(got, evt)
		return nil
	})}, activity.Config{Enabled: true})
	hook := &ActivityHook{
		Emitter: emitter,
		Actor:   func(context.Context) Actor { return Actor{UserID: "u1", TenantID: "t1"} },
	}
	payload := Payload{DraftID: "d1", Charger: ChargerSection{SerialNumber: "SN"}}

	ctx := context.Background()
	_ = hook.WizardUpdated(ctx, Event{Kind: EventStepChanged})
	_ = hook.WizardUpdated(ctx, Event{Kind: EventSubmitted, Outcome: OutcomeDisplayed, Payload: &payload})
	if err := hook.WizardUpdated(ctx, Event{SessionID: "s", Kind: EventSubmitted, Outcome: OutcomePublished, Payload: &payload}); err != nil {
		t.Fatalf("WizardUpdated returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one activity event, got %d", len(got))
	}
	evt := got[0]
	if evt.Verb != "onboarding.published" || evt.ObjectID != "d1" || evt.ActorID != "u1" || evt.TenantID != "t1" {
		t.Fatalf("unexpected event %+v", evt)
	}
}
