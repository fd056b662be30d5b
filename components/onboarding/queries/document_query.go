package queries

import (
	"context"
	"fmt"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-evcharger/components/onboarding"
)

// Document formats for the payload export.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// DocumentRequest asks for a printable copy of a session payload.
type DocumentRequest struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format"`
}

// Document is a rendered export.
type Document struct {
	ContentType string
	Filename    string
	Body        []byte
}

type wizardService interface {
	Wizard(ctx context.Context, id string) (*onboarding.Wizard, error)
}

// DocumentQuery renders the assembled payload as PDF or XLSX.
type DocumentQuery struct {
	service wizardService
	now     func() time.Time
}

// NewDocumentQuery builds the query.
func NewDocumentQuery(service wizardService) *DocumentQuery {
	return &DocumentQuery{service: service, now: time.Now}
}

var _ gocommand.Querier[DocumentRequest, Document] = (*DocumentQuery)(nil)

// Query renders the payload the session would submit right now.
func (q *DocumentQuery) Query(ctx context.Context, req DocumentRequest) (Document, error) {
	wizard, err := q.service.Wizard(ctx, req.SessionID)
	if err != nil {
		return Document{}, err
	}
	payload := wizard.Payload()
	switch req.Format {
	case FormatXLSX:
		body, err := onboarding.BuildPayloadXLSX(payload)
		if err != nil {
			return Document{}, err
		}
		return Document{
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Filename:    "charger-" + payload.DraftID + ".xlsx",
			Body:        body,
		}, nil
	case FormatPDF, "":
		body, err := onboarding.BuildPayloadPDF(payload, q.now())
		if err != nil {
			return Document{}, err
		}
		return Document{ContentType: "application/pdf", Filename: "charger-" + payload.DraftID + ".pdf", Body: body}, nil
	default:
		return Document{}, fmt.Errorf("unsupported document format %q", req.Format)
	}
}
