package engine

// Sample is one time-indexed trajectory point with the derived quantities a
// plotting or analysis consumer needs.
type Sample struct {
	T               float64
	Speed           float64
	Torque          float64
	DCVoltage       float64
	LinkCurrent     float64
	StatorCurrent   complex128
	PhaseCurrents   [3]float64
	TerminalVoltage complex128
	Duty            [3]float64
}

// Recorder is the append-only trajectory log. Only the engine writes to it;
// consumers read it after (or during) the run.
type Recorder struct {
	samples []Sample
	metrics map[string]float64
}

func NewRecorder() *Recorder {
	return &Recorder{metrics: make(map[string]float64)}
}

func (r *Recorder) Append(s Sample) { r.samples = append(r.samples, s) }

func (r *Recorder) Len() int { return len(r.samples) }

func (r *Recorder) Samples() []Sample { return r.samples }

func (r *Recorder) Last() Sample {
	if len(r.samples) == 0 {
		return Sample{}
	}
	return r.samples[len(r.samples)-1]
}

func (r *Recorder) Metrics() map[string]float64 { return r.metrics }

func (r *Recorder) Times() []float64 {
	ts := make([]float64, len(r.samples))
	for i, s := range r.samples {
		ts[i] = s.T
	}
	return ts
}

// Channel extracts a named scalar trajectory. Unknown names return nil.
func (r *Recorder) Channel(name string) []float64 {
	pick := func(f func(Sample) float64) []float64 {
		vs := make([]float64, len(r.samples))
		for i, s := range r.samples {
			vs[i] = f(s)
		}
		return vs
	}

	switch name {
	case "time":
		return r.Times()
	case "speed":
		return pick(func(s Sample) float64 { return s.Speed })
	case "torque":
		return pick(func(s Sample) float64 { return s.Torque })
	case "udc":
		return pick(func(s Sample) float64 { return s.DCVoltage })
	case "il":
		return pick(func(s Sample) float64 { return s.LinkCurrent })
	case "isa":
		return pick(func(s Sample) float64 { return s.PhaseCurrents[0] })
	case "isb":
		return pick(func(s Sample) float64 { return s.PhaseCurrents[1] })
	case "isc":
		return pick(func(s Sample) float64 { return s.PhaseCurrents[2] })
	case "us_re":
		return pick(func(s Sample) float64 { return real(s.TerminalVoltage) })
	case "us_im":
		return pick(func(s Sample) float64 { return imag(s.TerminalVoltage) })
	default:
		return nil
	}
}

// Channels lists the names Channel understands.
func Channels() []string {
	return []string{"time", "speed", "torque", "udc", "il", "isa", "isb", "isc", "us_re", "us_im"}
}
