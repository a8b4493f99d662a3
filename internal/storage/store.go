// Package storage persists completed runs as one directory per run:
// metadata.json for the scenario summary and series.csv for the full
// per-step record.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/camellia2077/EV-TMS-PLOT/internal/engine"
	"github.com/camellia2077/EV-TMS-PLOT/internal/params"
)

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
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Preset      string             `json:"preset,omitempty"`
	Refrigerant string             `json:"refrigerant"`
	COP         float64            `json:"cop"`
	AmbientC    float64            `json:"t_ambient_c"`
	Dt          float64            `json:"dt_s"`
	Duration    float64            `json:"duration_s"`
	NSteps      int                `json:"n_steps"`
	Metrics     map[string]float64 `json:"metrics"`
	Advisories  []string           `json:"advisories,omitempty"`
}

// Columns of series.csv, in file order after "time".
var seriesColumns = []string{
	"t_motor_c", "t_inverter_c", "t_battery_c", "t_cabin_c", "t_coolant_c",
	"speed_kmh",
	"q_gen_motor_w", "q_gen_inverter_w", "q_gen_battery_w",
	"q_cabin_load_w", "q_cabin_cool_w", "cabin_level",
	"q_chiller_w", "chiller_on",
	"fan_level", "p_fan_w", "q_radiator_w",
	"p_comp_mech_w", "p_comp_elec_w", "q_condenser_w",
	"p_inverter_in_w", "p_battery_out_w",
}

func seriesRow(r engine.Record) []float64 {
	chiller := 0.0
	if r.Out.ChillerOn {
		chiller = 1.0
	}
	return []float64{
		r.Temps.MotorC, r.Temps.InverterC, r.Temps.BatteryC, r.Temps.CabinC, r.Temps.CoolantC,
		r.Out.SpeedKmh,
		r.Out.QGenMotor, r.Out.QGenInverter, r.Out.QGenBattery,
		r.Out.QCabinLoad, r.Out.QCabinCool, float64(r.Out.CabinLevel),
		r.Out.QChiller, chiller,
		float64(r.Out.FanLevel), r.Out.PFan, r.Out.QRadiator,
		r.Out.PCompMech, r.Out.PCompElec, r.Out.QCondenserToCoolant,
		r.Out.PInverterIn, r.Out.PBatteryOut,
	}
}

// Save writes one run (metadata, full parameter set and series) and
// returns its generated id.
func (s *Store) Save(preset string, pr *params.Params, res *engine.Result) (string, error) {
	runID := fmt.Sprintf("ev_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := params.Save(filepath.Join(runDir, "config.yaml"), pr); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Timestamp:   time.Now(),
		Preset:      preset,
		Refrigerant: pr.Refrigeration.Refrigerant,
		COP:         res.COP,
		AmbientC:    pr.Simulation.AmbientC,
		Dt:          res.History.Dt,
		Duration:    float64(res.NSteps) * res.History.Dt,
		NSteps:      res.NSteps,
		Metrics:     res.Metrics,
		Advisories:  res.Advisories,
	}

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

	csvFile, err := os.Create(filepath.Join(runDir, "series.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	if err := WriteSeries(csvFile, res.History); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteSeries streams a history as CSV.
func WriteSeries(out io.Writer, h engine.History) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := append([]string{"time"}, seriesColumns...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range h.Records {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(r.Time, 'f', 3, 64))
		for _, v := range seriesRow(r) {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// LoadParams reads the parameter set a run was produced with.
func (s *Store) LoadParams(runID string) (*params.Params, error) {
	return params.Load(filepath.Join(s.baseDir, runID, "config.yaml"))
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

// Series is a loaded series.csv.
type Series struct {
	Columns []string
	Times   []float64
	Rows    [][]float64
}

// Column returns one named column, nil when absent.
func (sr *Series) Column(name string) []float64 {
	idx := -1
	for i, c := range sr.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(sr.Rows))
	for i, row := range sr.Rows {
		out[i] = row[idx]
	}
	return out
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
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
		return nil, fmt.Errorf("storage: %s: empty series", runID)
	}

	sr := &Series{Columns: records[0][1:]}
	for _, rec := range records[1:] {
		if len(rec) != len(records[0]) {
			return nil, fmt.Errorf("storage: %s: ragged series row", runID)
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: %s: bad time %q", runID, rec[0])
		}
		row := make([]float64, len(rec)-1)
		for j, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s: bad value %q", runID, cell)
			}
			row[j] = v
		}
		sr.Times = append(sr.Times, t)
		sr.Rows = append(sr.Rows, row)
	}
	return sr, nil
}

// History rebuilds a run history from a loaded series, for
// post-processing stored runs.
func (sr *Series) History(dt float64) engine.History {
	col := func(name string) []float64 { return sr.Column(name) }
	get := func(c []float64, i int) float64 {
		if c == nil {
			return 0
		}
		return c[i]
	}
	cols := map[string][]float64{}
	for _, name := range seriesColumns {
		cols[name] = col(name)
	}

	h := engine.History{Dt: dt, Records: make([]engine.Record, len(sr.Times))}
	for i := range sr.Times {
		h.Records[i] = engine.Record{
			Step: i,
			Time: sr.Times[i],
			Temps: engine.Temperatures{
				MotorC:    get(cols["t_motor_c"], i),
				InverterC: get(cols["t_inverter_c"], i),
				BatteryC:  get(cols["t_battery_c"], i),
				CabinC:    get(cols["t_cabin_c"], i),
				CoolantC:  get(cols["t_coolant_c"], i),
			},
			Out: engine.StepOutputs{
				SpeedKmh:            get(cols["speed_kmh"], i),
				QGenMotor:           get(cols["q_gen_motor_w"], i),
				QGenInverter:        get(cols["q_gen_inverter_w"], i),
				QGenBattery:         get(cols["q_gen_battery_w"], i),
				QCabinLoad:          get(cols["q_cabin_load_w"], i),
				QCabinCool:          get(cols["q_cabin_cool_w"], i),
				CabinLevel:          int(get(cols["cabin_level"], i)),
				QChiller:            get(cols["q_chiller_w"], i),
				ChillerOn:           get(cols["chiller_on"], i) != 0,
				FanLevel:            int(get(cols["fan_level"], i)),
				PFan:                get(cols["p_fan_w"], i),
				QRadiator:           get(cols["q_radiator_w"], i),
				PCompMech:           get(cols["p_comp_mech_w"], i),
				PCompElec:           get(cols["p_comp_elec_w"], i),
				QCondenserToCoolant: get(cols["q_condenser_w"], i),
				PInverterIn:         get(cols["p_inverter_in_w"], i),
				PBatteryOut:         get(cols["p_battery_out_w"], i),
			},
		}
	}
	return h
}

// ExportJSON writes metadata plus series as one JSON document.
func (s *Store) ExportJSON(out io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}
	doc := struct {
		Metadata *RunMetadata `json:"metadata"`
		Columns  []string     `json:"columns"`
		Times    []float64    `json:"times"`
		Rows     [][]float64  `json:"rows"`
	}{meta, series.Columns, series.Times, series.Rows}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
