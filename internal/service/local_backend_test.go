package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"remo_dashboard/internal/dashboard"
)

func TestLocalBackend_DecodesVendorJSON(t *testing.T) {
	t.Parallel()

	v := &fakeVendor{token: true, raw: json.RawMessage(`[
		{"id":"d1","name":"Remo","newest_events":{"te":{"val":21.5,"created_at":"2025-01-01T00:00:00Z"},"hu":{"val":55},"il":{"val":null}}}
	]`)}
	b := NewLocalBackend(NewProxyService(v))

	devs, err := b.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	if len(devs) != 1 || devs[0].Name != "Remo" {
		t.Fatalf("devices = %+v", devs)
	}
	if te := devs[0].Reading("te"); te == nil || *te != 21.5 {
		t.Errorf("te = %v", te)
	}
	if il := devs[0].Reading("il"); il != nil {
		t.Errorf("null il decoded as %v", *il)
	}
}

func TestLocalBackend_Appliances(t *testing.T) {
	t.Parallel()

	v := &fakeVendor{token: true, raw: json.RawMessage(`[
		{"id":"ac-1","type":"AC","nickname":"AC","settings":{"mode":"cool","temp":"26","temp_unit":"c","vol":"auto","dir":"auto"},
		 "aircon":{"range":{"modes":{"cool":{"temp":["18","19"],"vol":["auto"],"dir":["auto"]}},"fixedButtons":["power-off"]}}},
		{"id":"l-1","type":"LIGHT","nickname":"Light","signals":[{"id":"s1","name":"on"}]}
	]`)}
	b := NewLocalBackend(NewProxyService(v))

	apps, err := b.Appliances(context.Background())
	if err != nil {
		t.Fatalf("Appliances: %v", err)
	}
	if len(apps) != 2 || !apps[0].IsAircon() || apps[1].IsAircon() {
		t.Fatalf("appliances = %+v", apps)
	}
	if got := apps[0].Aircon.Range.Modes["cool"].Temp; len(got) != 2 || got[0] != "18" {
		t.Errorf("range = %v", got)
	}
	if apps[0].Aircon.Range.FixedButtons[0] != "power-off" || apps[1].Signals[0].ID != "s1" {
		t.Errorf("buttons/signals not decoded: %+v", apps)
	}
}

func TestLocalBackend_DecodeError(t *testing.T) {
	t.Parallel()

	v := &fakeVendor{token: true, raw: json.RawMessage(`{"not":"an array"}`)}
	if _, err := NewLocalBackend(NewProxyService(v)).Appliances(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLocalBackend_UpdateAndSignal(t *testing.T) {
	t.Parallel()

	v := &fakeVendor{token: true, raw: json.RawMessage(`{}`)}
	b := NewLocalBackend(NewProxyService(v))

	req := dashboard.MergedSettings{Mode: "cool", Temp: "24", Vol: "auto", Dir: "auto"}.Request()
	if err := b.UpdateAirconSettings(context.Background(), "ac-1", req); err != nil {
		t.Fatalf("UpdateAirconSettings: %v", err)
	}
	if v.gotForm.Get("temperature") != "24" || v.gotForm.Get("button") != "" {
		t.Errorf("form = %v", v.gotForm)
	}
	if _, ok := v.gotForm["button"]; !ok {
		t.Errorf("merged button must always be sent")
	}

	v.err = errors.New("404")
	if err := b.SendSignal(context.Background(), "abc"); err == nil {
		t.Fatalf("expected error")
	}
}

// LocalBackend must satisfy the dashboard's backend contract.
var _ dashboard.Backend = (*LocalBackend)(nil)
