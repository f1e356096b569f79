package types

import (
	"encoding/json"
	"testing"
)

func TestStatusUpdateMarshalOmitsAbsentFields(t *testing.T) {
	label := "game"
	tests := []struct {
		name   string
		update StatusUpdate
		want   string
	}{
		{name: "status only", update: StatusUpdate{Status: &label}, want: `{"status":"game"}`},
		{name: "temperature only", update: StatusUpdate{HasTemperature: true, Temperature: Celsius(46.5)}, want: `{"cpu_temperature":46.5}`},
		{name: "explicit null", update: StatusUpdate{HasTemperature: true}, want: `{"cpu_temperature":null}`},
		{name: "both", update: StatusUpdate{Status: &label, HasTemperature: true, Temperature: Celsius(45)}, want: `{"status":"game","cpu_temperature":45}`},
		{name: "empty", update: StatusUpdate{}, want: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.update)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Fatalf("got %s, want %s", data, tt.want)
			}
		})
	}
}

func TestStatusUpdateUnmarshalKeepsExplicitNull(t *testing.T) {
	var update StatusUpdate
	if err := json.Unmarshal([]byte(`{"status":"idle","cpu_temperature":null}`), &update); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if update.Status == nil || *update.Status != "idle" {
		t.Fatalf("unexpected status: %v", update.Status)
	}
	if !update.HasTemperature || update.Temperature != nil {
		t.Fatalf("expected explicit null temperature, got has=%v value=%v", update.HasTemperature, update.Temperature)
	}

	var partial StatusUpdate
	if err := json.Unmarshal([]byte(`{"cpu_temperature":51.25}`), &partial); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if partial.Status != nil {
		t.Fatalf("expected no status, got %q", *partial.Status)
	}
	if !partial.HasTemperature || partial.Temperature == nil || *partial.Temperature != 51.25 {
		t.Fatalf("unexpected temperature: %+v", partial)
	}
}

func TestSnapshotUpdateOmitsMissingTemperature(t *testing.T) {
	update := SnapshotUpdate(StatusSample{Label: IdleLabel})
	if update.HasTemperature {
		t.Fatalf("expected temperature omitted from snapshot")
	}
	update = SnapshotUpdate(StatusSample{Label: IdleLabel, Temperature: Celsius(41)})
	if !update.HasTemperature || update.Temperature == nil || *update.Temperature != 41 {
		t.Fatalf("expected temperature in snapshot, got %#v", update)
	}
}

func TestStatusSampleEqual(t *testing.T) {
	tests := []struct {
		a, b StatusSample
		want bool
	}{
		{StatusSample{Label: "idle"}, StatusSample{Label: "idle"}, true},
		{StatusSample{Label: "idle"}, StatusSample{Label: "idle", Temperature: Celsius(40)}, false},
		{StatusSample{Label: "idle", Temperature: Celsius(40)}, StatusSample{Label: "idle", Temperature: Celsius(40)}, true},
		{StatusSample{Label: "idle", Temperature: Celsius(40)}, StatusSample{Label: "game", Temperature: Celsius(40)}, false},
	}
	for i, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("case %d: Equal = %v, want %v", i, got, tt.want)
		}
	}
}

func TestStatusSampleApply(t *testing.T) {
	label := "Hades"
	start := StatusSample{Label: IdleLabel, Temperature: Celsius(40)}

	got := start.Apply(StatusUpdate{Status: &label})
	if !got.Equal(StatusSample{Label: "Hades", Temperature: Celsius(40)}) {
		t.Fatalf("status patch: got %+v", got)
	}
	got = got.Apply(StatusUpdate{HasTemperature: true})
	if !got.Equal(StatusSample{Label: "Hades"}) {
		t.Fatalf("null temperature patch: got %+v", got)
	}
	got = got.Apply(StatusUpdate{})
	if !got.Equal(StatusSample{Label: "Hades"}) {
		t.Fatalf("empty patch: got %+v", got)
	}
	if start.Temperature == nil || *start.Temperature != 40 {
		t.Fatalf("apply mutated the receiver: %+v", start)
	}
}
