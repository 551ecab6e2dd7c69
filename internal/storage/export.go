package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/drivesim/internal/engine"
)

type ExportData struct {
	Preset        string             `json:"preset"`
	Integrator    string             `json:"integrator"`
	SwitchingFreq float64            `json:"switching_freq"`
	StopTime      float64            `json:"stop_time"`
	Steps         int                `json:"steps"`
	Samples       []exportSample     `json:"samples"`
	Metrics       map[string]float64 `json:"metrics"`
}

type exportSample struct {
	T           float64    `json:"t"`
	Speed       float64    `json:"speed"`
	Torque      float64    `json:"torque"`
	DCVoltage   float64    `json:"udc"`
	LinkCurrent float64    `json:"il"`
	Currents    [3]float64 `json:"is_abc"`
	Duty        [3]float64 `json:"duty"`
}

func exportData(meta RunMetadata, rec *engine.Recorder) ExportData {
	data := ExportData{
		Preset:        meta.Preset,
		Integrator:    meta.Integrator,
		SwitchingFreq: meta.SwitchingFreq,
		StopTime:      meta.StopTime,
		Steps:         rec.Len(),
		Samples:       make([]exportSample, 0, rec.Len()),
		Metrics:       rec.Metrics(),
	}
	for _, s := range rec.Samples() {
		data.Samples = append(data.Samples, exportSample{
			T:           s.T,
			Speed:       s.Speed,
			Torque:      s.Torque,
			DCVoltage:   s.DCVoltage,
			LinkCurrent: s.LinkCurrent,
			Currents:    s.PhaseCurrents,
			Duty:        s.Duty,
		})
	}
	return data
}

func ExportJSON(w io.Writer, meta RunMetadata, rec *engine.Recorder) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportData(meta, rec))
}

func ExportJSONFile(path string, meta RunMetadata, rec *engine.Recorder) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, meta, rec)
}
