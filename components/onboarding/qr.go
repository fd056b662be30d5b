package onboarding

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrQRUnreadable means a scanned code carried no charger identity.
var ErrQRUnreadable = errors.New("onboarding: qr code does not identify a charger")

// ChargerQR is the identity printed on a charger label.
type ChargerQR struct {
	Name         string `json:"name,omitempty"`
	SerialNumber string `json:"serialNumber"`
	PIN          string `json:"pin,omitempty"`
}

// ParseChargerQR decodes the label formats found on supported chargers:
//
//	evcharger://charger?serial=SN123&pin=4821&name=Garage
//	SN:SN123;PIN:4821
//	SN123
func ParseChargerQR(text string) (ChargerQR, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChargerQR{}, ErrQRUnreadable
	}
	if strings.Contains(text, "://") {
		return parseQRURL(text)
	}
	if strings.Contains(text, ":") {
		return parseQRPairs(text)
	}
	if strings.ContainsAny(text, " \t\n;") {
		return ChargerQR{}, ErrQRUnreadable
	}
	return ChargerQR{SerialNumber: text}, nil
}

func parseQRURL(text string) (ChargerQR, error) {
	u, err := url.Parse(text)
	if err != nil {
		return ChargerQR{}, ErrQRUnreadable
	}
	q := u.Query()
	out := ChargerQR{
		Name:         strings.TrimSpace(q.Get("name")),
		SerialNumber: strings.TrimSpace(firstNonEmpty(q.Get("serial"), q.Get("sn"))),
		PIN:          strings.TrimSpace(q.Get("pin")),
	}
	if out.SerialNumber == "" {
		return ChargerQR{}, ErrQRUnreadable
	}
	return out, nil
}

func parseQRPairs(text string) (ChargerQR, error) {
	var out ChargerQR
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == ';' || r == '\n' }) {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "SN", "SERIAL":
			out.SerialNumber = value
		case "PIN":
			out.PIN = value
		case "NAME":
			out.Name = value
		}
	}
	if out.SerialNumber == "" {
		return ChargerQR{}, ErrQRUnreadable
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ApplyQR fills the identify step from a scanned code. Fields missing from
// the code keep their current values. An unreadable code becomes a warning
// notice and leaves the draft untouched.
func (w *Wizard) ApplyQR(ctx context.Context, text string) (Draft, error) {
	qr, err := ParseChargerQR(text)
	if err != nil {
		w.notify(ctx, Notice{Level: NoticeWarning, Code: "qr_unreadable", Message: "The scanned code does not contain a charger serial number."})
		return w.Draft(), err
	}
	patch := &ChargerPatch{SerialNumber: &qr.SerialNumber}
	if qr.PIN != "" {
		patch.PIN = &qr.PIN
	}
	if qr.Name != "" {
		patch.Name = &qr.Name
	}
	return w.Update(ctx, Patch{Charger: patch})
}
