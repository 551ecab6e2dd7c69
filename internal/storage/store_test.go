package storage

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/san-kum/drivesim/internal/engine"
)

func sampleRecorder() *engine.Recorder {
	rec := engine.NewRecorder()
	rec.Append(engine.Sample{T: 0, Speed: 0, DCVoltage: 565.7})
	rec.Append(engine.Sample{
		T: 0.00025, Speed: 1.2, Torque: 0.4, DCVoltage: 560.1, LinkCurrent: 2.5,
		PhaseCurrents: [3]float64{1, -0.5, -0.5},
		Duty:          [3]float64{0.6, 0.4, 0.5},
	})
	rec.Metrics()["dc_ripple"] = 0.01
	return rec
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	meta := RunMetadata{
		Preset:        "2.2kw",
		SwitchingFreq: 4e3,
		PWM:           true,
		StopTime:      1.5,
		Integrator:    "rk4",
		SpeedRefHz:    40,
	}
	runID, err := s.Save(meta, sampleRecorder())
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Preset != "2.2kw" || !loaded.PWM {
		t.Errorf("metadata mangled: %+v", loaded)
	}
	if loaded.Metrics["dc_ripple"] != 0.01 {
		t.Errorf("metrics not persisted: %v", loaded.Metrics)
	}

	channels, err := s.LoadTrajectory(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(channels["time"]) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(channels["time"]))
	}
	if channels["udc"][1] != 560.1 {
		t.Errorf("udc column: got %g", channels["udc"][1])
	}
	if channels["da"][1] != 0.6 {
		t.Errorf("duty column: got %g", channels["da"][1])
	}
}

func TestListRuns(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	if runs, err := s.List(); err != nil || len(runs) != 0 {
		t.Fatalf("empty store: runs=%v err=%v", runs, err)
	}

	if _, err := s.Save(RunMetadata{Preset: "fan"}, sampleRecorder()); err != nil {
		t.Fatal(err)
	}
	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Preset != "fan" {
		t.Errorf("listing: %+v", runs)
	}
}

func TestListMissingBaseDir(t *testing.T) {
	s := New("/nonexistent/drivesim-store")
	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty listing, got %d", len(runs))
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := RunMetadata{Preset: "2.2kw", Integrator: "rk4", SwitchingFreq: 4e3, StopTime: 1.5}
	if err := ExportJSON(&buf, meta, sampleRecorder()); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.Steps != 2 {
		t.Errorf("steps: got %d", data.Steps)
	}
	if data.Samples[1].DCVoltage != 560.1 {
		t.Errorf("sample voltage: got %g", data.Samples[1].DCVoltage)
	}
	if data.Metrics["dc_ripple"] != 0.01 {
		t.Errorf("metrics: got %v", data.Metrics)
	}
}
