package remo_dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Appliance types reported by the vendor API.
const (
	ApplianceTypeAC    = "AC"
	ApplianceTypeLight = "LIGHT"
)

// Sensor kinds inside Device.NewestEvents.
const (
	SensorTemperature  = "te"
	SensorHumidity     = "hu"
	SensorIllumination = "il"
)

// Appliance is a vendor-registered controllable device.
type Appliance struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"` // AC | LIGHT | ...
	Nickname string          `json:"nickname"`
	Settings *AirconSettings `json:"settings,omitempty"` // AC only
	Aircon   *Aircon         `json:"aircon,omitempty"`   // AC only
	Signals  []Signal        `json:"signals,omitempty"`  // LIGHT signals
	Light    *Light          `json:"light,omitempty"`
}

// IsAircon reports whether the appliance carries an aircon settings model.
func (a Appliance) IsAircon() bool {
	return a.Type == ApplianceTypeAC && a.Settings != nil
}

// AirconSettings is the last settings set reported for an AC.
type AirconSettings struct {
	Mode     string `json:"mode"`
	Temp     string `json:"temp"`
	TempUnit string `json:"temp_unit"`
	Vol      string `json:"vol"`
	Dir      string `json:"dir"`
	Button   string `json:"button,omitempty"`
}

// Aircon holds the allowed settings of an AC.
type Aircon struct {
	Range    AirconRange `json:"range"`
	TempUnit string      `json:"tempUnit,omitempty"`
}

// AirconRange maps each mode to its allowed values.
type AirconRange struct {
	Modes        map[string]ModeRange `json:"modes"`
	FixedButtons []string             `json:"fixedButtons,omitempty"`
}

// ModeRange lists allowed values for a single operation mode.
type ModeRange struct {
	Temp []string `json:"temp"` // numeric strings, ordered
	Vol  []string `json:"vol"`
	Dir  []string `json:"dir"`
}

// Signal is a pre-recorded IR command.
type Signal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Light carries the reported state of a LIGHT appliance.
type Light struct {
	State LightState `json:"state"`
}

type LightState struct {
	Power      string `json:"power,omitempty"`
	Brightness string `json:"brightness,omitempty"`
}

// Device is a sensor unit reporting environment events.
type Device struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name,omitempty"`
	NewestEvents map[string]SensorEvent `json:"newest_events"`
}

// SensorEvent is the newest reading of one sensor kind. Val is nil when the
// vendor reports null.
type SensorEvent struct {
	Val       *float64  `json:"val"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Reading returns the value of the given sensor kind, or nil when absent.
func (d Device) Reading(kind string) *float64 {
	ev, ok := d.NewestEvents[kind]
	if !ok {
		return nil
	}
	return ev.Val
}

// AirconSettingsRequest is the body accepted by the aircon proxy endpoint.
// A nil field is absent and is not forwarded to the vendor.
type AirconSettingsRequest struct {
	Temp     *string `json:"temp,omitempty"`
	Mode     *string `json:"mode,omitempty"`
	Vol      *string `json:"vol,omitempty"`
	Dir      *string `json:"dir,omitempty"`
	Button   *string `json:"button,omitempty"`
	TempUnit *string `json:"temp_unit,omitempty"`
}

// UnmarshalJSON accepts temp as either a JSON string or a JSON number.
func (r *AirconSettingsRequest) UnmarshalJSON(b []byte) error {
	var raw struct {
		Temp     json.RawMessage `json:"temp"`
		Mode     *string         `json:"mode"`
		Vol      *string         `json:"vol"`
		Dir      *string         `json:"dir"`
		Button   *string         `json:"button"`
		TempUnit *string         `json:"temp_unit"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = AirconSettingsRequest{
		Mode:     raw.Mode,
		Vol:      raw.Vol,
		Dir:      raw.Dir,
		Button:   raw.Button,
		TempUnit: raw.TempUnit,
	}
	temp, err := decodeTemp(raw.Temp)
	if err != nil {
		return err
	}
	r.Temp = temp
	return nil
}

func decodeTemp(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("temp: %w", err)
		}
		return &s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("temp must be a string or a number: %w", err)
	}
	// numbers are forwarded in their shortest decimal form: 24.0 and 2.4e1 become "24"
	v, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return nil, fmt.Errorf("temp: %w", err)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	return &s, nil
}

// Vendor form field names for aircon settings.
const (
	formTemperature   = "temperature"
	formOperationMode = "operation_mode"
	formAirVolume     = "air_volume"
	formAirDirection  = "air_direction"
	formButton        = "button"
	formTempUnit      = "temperature_unit"
)

// Form converts the request into vendor form fields, skipping absent ones.
func (r AirconSettingsRequest) Form() url.Values {
	form := url.Values{}
	add := func(key string, v *string) {
		if v != nil {
			form.Set(key, *v)
		}
	}
	add(formTemperature, r.Temp)
	add(formOperationMode, r.Mode)
	add(formAirVolume, r.Vol)
	add(formAirDirection, r.Dir)
	add(formButton, r.Button)
	add(formTempUnit, r.TempUnit)
	return form
}

// String renders present fields for logs.
func (r AirconSettingsRequest) String() string {
	parts := make([]string, 0, 6)
	for _, f := range []struct {
		k string
		v *string
	}{{"temp", r.Temp}, {"mode", r.Mode}, {"vol", r.Vol}, {"dir", r.Dir}, {"button", r.Button}, {"temp_unit", r.TempUnit}} {
		if f.v != nil {
			parts = append(parts, f.k+"="+*f.v)
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}
