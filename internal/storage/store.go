package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/drivesim/internal/engine"
)

// Store writes drive runs to disk, one directory per run with a JSON
// metadata file and a CSV trajectory.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Preset        string             `json:"preset"`
	Timestamp     time.Time          `json:"timestamp"`
	SwitchingFreq float64            `json:"switching_freq"`
	PWM           bool               `json:"pwm"`
	StopTime      float64            `json:"stop_time"`
	Integrator    string             `json:"integrator"`
	SpeedRefHz    float64            `json:"speed_ref_hz"`
	Metrics       map[string]float64 `json:"metrics"`
}

var csvHeader = []string{
	"time", "speed", "torque", "udc", "il",
	"isa", "isb", "isc", "us_re", "us_im",
	"da", "db", "dc",
}

func (s *Store) Save(meta RunMetadata, rec *engine.Recorder) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Preset, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Metrics = rec.Metrics()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, rec); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteCSV streams the recorded trajectory in the store's column layout.
func WriteCSV(f *os.File, rec *engine.Recorder) error {
	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', 9, 64) }
	for _, smp := range rec.Samples() {
		row := []string{
			ff(smp.T), ff(smp.Speed), ff(smp.Torque), ff(smp.DCVoltage), ff(smp.LinkCurrent),
			ff(smp.PhaseCurrents[0]), ff(smp.PhaseCurrents[1]), ff(smp.PhaseCurrents[2]),
			ff(real(smp.TerminalVoltage)), ff(imag(smp.TerminalVoltage)),
			ff(smp.Duty[0]), ff(smp.Duty[1]), ff(smp.Duty[2]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrajectory reads back a saved CSV as named channels keyed by the
// store's column names.
func (s *Store) LoadTrajectory(runID string) (map[string][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return map[string][]float64{}, nil
	}

	header := records[0]
	channels := make(map[string][]float64, len(header))
	for _, name := range header {
		channels[name] = make([]float64, 0, len(records)-1)
	}

	for _, record := range records[1:] {
		for j, field := range record {
			if j >= len(header) {
				break
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			channels[header[j]] = append(channels[header[j]], v)
		}
	}
	return channels, nil
}
