package types

import (
	"bytes"
	"encoding/json"
)

// IdleLabel is reported when no game or known process is running.
const IdleLabel = "idle"

// StatusSample is one observation of the host. Temperature is nil when no
// sensor reading was obtainable.
type StatusSample struct {
	Label       string
	Temperature *float64
}

// Equal reports whether both samples carry the same label and temperature.
// Two nil temperatures are equal; nil and a number are not.
func (s StatusSample) Equal(other StatusSample) bool {
	return s.Label == other.Label && TemperatureEqual(s.Temperature, other.Temperature)
}

func TemperatureEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Celsius returns a pointer to v, for building samples.
func Celsius(v float64) *float64 {
	return &v
}

// StatusUpdate is a partial patch pushed to subscribers. A field is sent
// only when Has* is set; HasTemperature with a nil Temperature encodes an
// explicit null ("sensor reading went away").
type StatusUpdate struct {
	Status         *string
	HasTemperature bool
	Temperature    *float64
}

func (u StatusUpdate) Empty() bool {
	return u.Status == nil && !u.HasTemperature
}

// Apply returns s with the fields carried by u replaced.
func (s StatusSample) Apply(u StatusUpdate) StatusSample {
	next := StatusSample{Label: s.Label, Temperature: copyTemperature(s.Temperature)}
	if u.Status != nil {
		next.Label = *u.Status
	}
	if u.HasTemperature {
		next.Temperature = copyTemperature(u.Temperature)
	}
	return next
}

// SnapshotUpdate reports the fields of s that hold a value; an absent
// temperature is omitted rather than sent as null.
func SnapshotUpdate(s StatusSample) StatusUpdate {
	label := s.Label
	update := StatusUpdate{Status: &label}
	if s.Temperature != nil {
		update.HasTemperature = true
		update.Temperature = copyTemperature(s.Temperature)
	}
	return update
}

func copyTemperature(t *float64) *float64 {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type statusUpdateWire struct {
	Status         *string         `json:"status,omitempty"`
	CPUTemperature json.RawMessage `json:"cpu_temperature,omitempty"`
}

func (u StatusUpdate) MarshalJSON() ([]byte, error) {
	wire := statusUpdateWire{Status: u.Status}
	if u.HasTemperature {
		if u.Temperature == nil {
			wire.CPUTemperature = json.RawMessage("null")
		} else {
			raw, err := json.Marshal(*u.Temperature)
			if err != nil {
				return nil, err
			}
			wire.CPUTemperature = raw
		}
	}
	return json.Marshal(wire)
}

func (u *StatusUpdate) UnmarshalJSON(data []byte) error {
	var wire statusUpdateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*u = StatusUpdate{Status: wire.Status}
	if wire.CPUTemperature != nil {
		u.HasTemperature = true
		if !bytes.Equal(bytes.TrimSpace(wire.CPUTemperature), []byte("null")) {
			var v float64
			if err := json.Unmarshal(wire.CPUTemperature, &v); err != nil {
				return err
			}
			u.Temperature = &v
		}
	}
	return nil
}

// StatusSnapshot is the body of GET /v1/status.
type StatusSnapshot struct {
	Status         *string  `json:"status"`
	CPUTemperature *float64 `json:"cpu_temperature"`
	Sampled        bool     `json:"sampled"`
}
