package onboarding

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

type sheetRow struct {
	label string
	value string
}

func payloadRows(p Payload) []sheetRow {
	verified := "no"
	if p.Connection.Verified {
		verified = "yes"
	}
	operator := "no"
	if p.OperationalDetails.OperatorAssigned {
		operator = "yes"
	}
	return []sheetRow{
		{"Draft", p.DraftID},
		{"Charger name", p.Charger.Name},
		{"Serial number", p.Charger.SerialNumber},
		{"PIN", p.Charger.PIN},
		{"Photos", strings.Join(p.Charger.ImageRefs, ", ")},
		{"OCPP server", p.Network.ServerURL},
		{"Station id", p.Network.StationID},
		{"Connection verified", verified},
		{"Coordinates", p.Location.Coordinates.String()},
		{"Address", p.Location.DisplayName},
		{"Access notes", p.Location.AccessNotes},
		{"Mode", string(p.Commercialization.Mode)},
		{"Operator assigned", operator},
		{"Pricing", string(p.OperationalDetails.PricingModel)},
		{"Availability", p.OperationalDetails.AvailabilityLabel},
		{"Access", p.OperationalDetails.AccessLabel},
	}
}

// BuildPayloadPDF renders a one-page sheet of the payload so an installer can
// keep it when publishing fails. The station password is never printed.
func BuildPayloadPDF(p Payload, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, "Charger onboarding")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, row := range payloadRows(p) {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 7, tr(row.label), "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(130, 7, tr(row.value), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("onboarding: render payload pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildPayloadXLSX exports the same sheet as a spreadsheet for back-office
// import.
func BuildPayloadXLSX(p Payload) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "charger"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("onboarding: rename sheet: %w", err)
	}
	_ = f.SetCellValue(sheet, "A1", "Field")
	_ = f.SetCellValue(sheet, "B1", "Value")
	for i, row := range payloadRows(p) {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), row.label)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), row.value)
	}
	next := len(payloadRows(p)) + 2
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", next), "Latitude")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", next), p.Location.Coordinates.Latitude)
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", next+1), "Longitude")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", next+1), p.Location.Coordinates.Longitude)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("onboarding: render payload xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
