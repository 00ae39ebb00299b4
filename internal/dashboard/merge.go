package dashboard

import (
	"fmt"
	"strconv"

	"remo_dashboard"
)

// Optional is a value with an explicit presence flag. The zero value is absent.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Or returns the value when present, otherwise fallback.
func (o Optional[T]) Or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}

// PartialSettings is a user-issued change to an AC. An explicitly set empty
// string is a value (power-off / no value), not an absence.
type PartialSettings struct {
	Mode   Optional[string]
	Temp   Optional[string]
	Vol    Optional[string]
	Dir    Optional[string]
	Button Optional[string]
}

// TempValue formats a numeric temperature for the vendor API: shortest exact
// decimal, so 24 becomes "24" and 24.5 stays "24.5".
func TempValue(v float64) Optional[string] {
	return Some(strconv.FormatFloat(v, 'f', -1, 64))
}

// MergedSettings is the complete parameter set sent on every aircon call.
type MergedSettings struct {
	Mode   string `json:"mode"`
	Temp   string `json:"temp"`
	Vol    string `json:"vol"`
	Dir    string `json:"dir"`
	Button string `json:"button"`
}

// Merge fills every field missing from patch with the current value.
// Button is a one-shot command and never falls back.
func Merge(current remo_dashboard.AirconSettings, patch PartialSettings) MergedSettings {
	return MergedSettings{
		Mode:   patch.Mode.Or(current.Mode),
		Temp:   patch.Temp.Or(current.Temp),
		Vol:    patch.Vol.Or(current.Vol),
		Dir:    patch.Dir.Or(current.Dir),
		Button: patch.Button.Or(""),
	}
}

// Request converts the merged settings into a proxy request with all five
// fields present.
func (m MergedSettings) Request() remo_dashboard.AirconSettingsRequest {
	mode, temp, vol, dir, button := m.Mode, m.Temp, m.Vol, m.Dir, m.Button
	return remo_dashboard.AirconSettingsRequest{
		Mode:   &mode,
		Temp:   &temp,
		Vol:    &vol,
		Dir:    &dir,
		Button: &button,
	}
}

// ModePatch builds the change for switching an AC to mode: the first allowed
// temp, vol and dir of that mode, or the current value where the range is empty.
func ModePatch(app remo_dashboard.Appliance, mode string) (PartialSettings, error) {
	if app.Aircon == nil {
		return PartialSettings{}, fmt.Errorf("%w: appliance %s has no aircon range", ErrUnknownMode, app.ID)
	}
	r, ok := app.Aircon.Range.Modes[mode]
	if !ok {
		return PartialSettings{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	var current remo_dashboard.AirconSettings
	if app.Settings != nil {
		current = *app.Settings
	}
	return PartialSettings{
		Mode: Some(mode),
		Temp: Some(first(r.Temp, current.Temp)),
		Vol:  Some(first(r.Vol, current.Vol)),
		Dir:  Some(first(r.Dir, current.Dir)),
	}, nil
}

func first(values []string, fallback string) string {
	if len(values) == 0 || values[0] == "" {
		return fallback
	}
	return values[0]
}
