package queries

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

type stubService struct {
	wizard *onboarding.Wizard
	places []onboarding.Place
	last   string
}

func (s *stubService) Wizard(_ context.Context, id string) (*onboarding.Wizard, error) {
	s.last = id
	return s.wizard, nil
}

func (s *stubService) State(_ context.Context, id string) (onboarding.View, error) {
	s.last = id
	return s.wizard.Snapshot(), nil
}

func (s *stubService) SearchPlaces(_ context.Context, id, query string) ([]onboarding.Place, error) {
	s.last = id + ":" + query
	return s.places, nil
}

func newStub(t *testing.T) *stubService {
	t.Helper()
	w := onboarding.NewWizard(onboarding.Options{SessionID: "s1"})
	t.Cleanup(w.Close)
	return &stubService{wizard: w, places: []onboarding.Place{{DisplayName: "Madrid"}}}
}

func TestStateQuery(t *testing.T) {
	service := newStub(t)
	view, err := NewStateQuery(service).Query(context.Background(), StateRequest{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if view.SessionID != "s1" || view.Step != onboarding.StepIdentify {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestPlacesQuery(t *testing.T) {
	service := newStub(t)
	places, err := NewPlacesQuery(service).Query(context.Background(), PlacesRequest{SessionID: "s1", Query: "mad"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(places) != 1 || service.last != "s1:mad" {
		t.Fatalf("unexpected result %v (%s)", places, service.last)
	}
}

func TestDocumentQueryFormats(t *testing.T) {
	service := newStub(t)
	query := NewDocumentQuery(service)
	query.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	draftID := service.wizard.DraftID()

	pdf, err := query.Query(context.Background(), DocumentRequest{SessionID: "s1"})
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if pdf.ContentType != "application/pdf" || pdf.Filename != "charger-"+draftID+".pdf" || !bytes.HasPrefix(pdf.Body, []byte("%PDF")) {
		t.Fatalf("unexpected pdf document %s %s", pdf.ContentType, pdf.Filename)
	}

	xlsx, err := query.Query(context.Background(), DocumentRequest{SessionID: "s1", Format: FormatXLSX})
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	if xlsx.Filename != "charger-"+draftID+".xlsx" || len(xlsx.Body) == 0 {
		t.Fatalf("unexpected xlsx document %s", xlsx.Filename)
	}

	if _, err := query.Query(context.Background(), DocumentRequest{SessionID: "s1", Format: "docx"}); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
