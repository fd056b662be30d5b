package onboarding

import (
	"context"
	"errors"
	"testing"
)

func TestParseChargerQR(t *testing.T) {
	cases := []struct {
		in   string
		want ChargerQR
	}{
		{"evcharger://charger?serial=SN123&pin=4821&name=Garage", ChargerQR{Name: "Garage", SerialNumber: "SN123", PIN: "4821"}},
		{"evcharger://charger?sn=SN9", ChargerQR{SerialNumber: "SN9"}},
		{"SN:SN123;PIN:4821", ChargerQR{SerialNumber: "SN123", PIN: "4821"}},
		{"serial: SN5\nname: Shed", ChargerQR{SerialNumber: "SN5", Name: "Shed"}},
		{"  SN777  ", ChargerQR{SerialNumber: "SN777"}},
	}
	for _, tc := range cases {
		got, err := ParseChargerQR(tc.in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
}

func TestParseChargerQRRejectsUnreadable(t *testing.T) {
	for _, in := range []string{"", "PIN:1234", "evcharger://charger?pin=1", "two words"} {
		if _, err := ParseChargerQR(in); !errors.Is(err, ErrQRUnreadable) {
			t.Fatalf("%q: expected ErrQRUnreadable, got %v", in, err)
		}
	}
}

func TestApplyQRKeepsMissingFields(t *testing.T) {
	w := newTestWizard(t, Options{})
	if _, err := w.Update(context.Background(), Patch{Charger: &ChargerPatch{Name: ptr("Garage"), PIN: ptr("1111")}}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	draft, err := w.ApplyQR(context.Background(), "SN:SN123")
	if err != nil {
		t.Fatalf("ApplyQR returned error: %v", err)
	}
	if draft.Charger.SerialNumber != "SN123" || draft.Charger.Name != "Garage" || draft.Charger.PIN != "1111" {
		t.Fatalf("unexpected charger %+v", draft.Charger)
	}

	if _, err := w.ApplyQR(context.Background(), "garbage text"); !errors.Is(err, ErrQRUnreadable) {
		t.Fatalf("expected ErrQRUnreadable, got %v", err)
	}
	if w.Draft().Charger.SerialNumber != "SN123" {
		t.Fatalf("unreadable code must not change the draft")
	}
	if notices := w.Snapshot().Notices; len(notices) != 1 || notices[0].Code != "qr_unreadable" {
		t.Fatalf("expected qr notice, got %+v", notices)
	}
}
