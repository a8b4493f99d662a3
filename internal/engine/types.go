package engine

// Temperatures is the five-node thermal state, all in C.
type Temperatures struct {
	MotorC    float64
	InverterC float64
	BatteryC  float64
	CabinC    float64
	CoolantC  float64
}

// State is the continuous simulation state at one instant.
type State struct {
	Time     float64
	SpeedKmh float64
	Temps    Temperatures
}

// StepOutputs collects everything evaluated at one step besides the
// temperatures themselves. Heats and powers in W, derivatives in K/s.
type StepOutputs struct {
	SpeedKmh float64

	QGenMotor    float64
	QGenInverter float64
	QGenBattery  float64
	PInverterIn  float64

	QCabinLoad float64
	QCabinCool float64
	CabinLevel int

	QMotorToCoolant    float64
	QInverterToCoolant float64
	QBatteryToCoolant  float64

	ChillerOn bool
	QChiller  float64

	FanLevel              int
	PFan                  float64
	UARadiatorEff         float64
	RadiatorEffectiveness float64
	QRadiator             float64

	PCompMech           float64
	PCompElec           float64
	QCondenserToCoolant float64
	PBatteryOut         float64

	DMotor    float64
	DInverter float64
	DBattery  float64
	DCabin    float64
	DCoolant  float64
}

// Record is one row of a run: temperatures at the step start and the
// outputs evaluated from them.
type Record struct {
	Step  int
	Time  float64
	Temps Temperatures
	Out   StepOutputs
}

// History holds all records of a run, indices 0..NSteps.
type History struct {
	Records []Record
	Dt      float64
}

// Channel names a temperature node for series extraction.
type Channel int

const (
	ChMotor Channel = iota
	ChInverter
	ChBattery
	ChCabin
	ChCoolant
)

var channelNames = [...]string{"motor", "inverter", "battery", "cabin", "coolant"}

func (c Channel) String() string { return channelNames[c] }

// Channels lists all temperature nodes in record order.
func Channels() []Channel {
	return []Channel{ChMotor, ChInverter, ChBattery, ChCabin, ChCoolant}
}

func (t Temperatures) At(c Channel) float64 {
	switch c {
	case ChMotor:
		return t.MotorC
	case ChInverter:
		return t.InverterC
	case ChBattery:
		return t.BatteryC
	case ChCabin:
		return t.CabinC
	default:
		return t.CoolantC
	}
}

func (h History) Times() []float64 {
	out := make([]float64, len(h.Records))
	for i, r := range h.Records {
		out[i] = r.Time
	}
	return out
}

// TempSeries extracts one temperature channel over the whole run.
func (h History) TempSeries(c Channel) []float64 {
	out := make([]float64, len(h.Records))
	for i, r := range h.Records {
		out[i] = r.Temps.At(c)
	}
	return out
}

// Series extracts an arbitrary per-record value over the whole run.
func (h History) Series(sel func(Record) float64) []float64 {
	out := make([]float64, len(h.Records))
	for i, r := range h.Records {
		out[i] = sel(r)
	}
	return out
}

// Metric observes each record of a run and reduces it to one number.
type Metric interface {
	Name() string
	Observe(rec Record)
	Value() float64
	Reset()
}

// Result is a completed run.
type Result struct {
	History    History
	COP        float64
	NSteps     int
	Metrics    map[string]float64
	Advisories []string
}
