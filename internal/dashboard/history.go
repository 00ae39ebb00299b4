package dashboard

import (
	"time"

	"remo_dashboard"
)

// HistoryCapacity is the number of samples kept in the rolling window.
const HistoryCapacity = 10

const timeLabelLayout = "15:04:05"

// EnvironmentSample is one reading of the three room sensors.
type EnvironmentSample struct {
	Time     string    `json:"time"` // local HH:MM:SS
	Temp     *float64  `json:"temp"`
	Humidity *float64  `json:"humidity"`
	Light    *float64  `json:"light"`
	At       time.Time `json:"at"`
}

// Complete reports whether all three readings are present.
func (s EnvironmentSample) Complete() bool {
	return s.Temp != nil && s.Humidity != nil && s.Light != nil
}

// TimeLabel formats t as local wall-clock time, zero padded.
func TimeLabel(t time.Time) string {
	return t.Local().Format(timeLabelLayout)
}

// SampleFromDevice reads te, hu and il from the device's newest events.
func SampleFromDevice(d remo_dashboard.Device, at time.Time) EnvironmentSample {
	return EnvironmentSample{
		Time:     TimeLabel(at),
		Temp:     d.Reading(remo_dashboard.SensorTemperature),
		Humidity: d.Reading(remo_dashboard.SensorHumidity),
		Light:    d.Reading(remo_dashboard.SensorIllumination),
		At:       at,
	}
}

// AppendSample returns a new buffer with s appended, evicting the oldest
// sample at capacity. Incomplete samples leave the buffer unchanged.
// buf is never modified.
func AppendSample(buf []EnvironmentSample, s EnvironmentSample) []EnvironmentSample {
	if !s.Complete() {
		return append([]EnvironmentSample(nil), buf...)
	}
	start := 0
	if len(buf) >= HistoryCapacity {
		start = len(buf) - HistoryCapacity + 1
	}
	out := make([]EnvironmentSample, 0, HistoryCapacity)
	out = append(out, buf[start:]...)
	return append(out, s)
}
