// Package render draws run histories to image files with gonum/plot.
package render

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/camellia2077/EV-TMS-PLOT/internal/engine"
	"github.com/camellia2077/EV-TMS-PLOT/internal/params"
)

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 5 * vg.Inch
)

func xys(times, values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i].X = times[i]
		pts[i].Y = values[i]
	}
	return pts
}

func newPlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time [s]"
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func addReference(p *plot.Plot, label string, t0, t1, y float64) error {
	line, err := plotter.NewLine(plotter.XYs{{X: t0, Y: y}, {X: t1, Y: y}})
	if err != nil {
		return err
	}
	line.LineStyle.Color = color.Gray{Y: 128}
	line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

// Temperatures draws all five nodes with the control targets as
// dashed references.
func Temperatures(h engine.History, pr *params.Params, path string) error {
	p := newPlot("Node temperatures", "temperature [C]")
	times := h.Times()
	var args []interface{}
	for _, ch := range engine.Channels() {
		args = append(args, ch.String(), xys(times, h.TempSeries(ch)))
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return err
	}
	if len(times) > 1 {
		t0, t1 := times[0], times[len(times)-1]
		if err := addReference(p, "motor/inverter target", t0, t1, pr.Control.TMotorTargetC); err != nil {
			return err
		}
		if err := addReference(p, "battery target", t0, t1, pr.Control.TBattTargetHighC); err != nil {
			return err
		}
		if err := addReference(p, "cabin target", t0, t1, pr.Control.TCabinTargetC); err != nil {
			return err
		}
	}
	return p.Save(chartWidth, chartHeight, path)
}

// Power draws the electrical side: compressor, fans, inverter input
// and total battery output.
func Power(h engine.History, path string) error {
	p := newPlot("Electrical power", "power [W]")
	times := h.Times()
	err := plotutil.AddLines(p,
		"battery output", xys(times, h.Series(func(r engine.Record) float64 { return r.Out.PBatteryOut })),
		"inverter input", xys(times, h.Series(func(r engine.Record) float64 { return r.Out.PInverterIn })),
		"compressor", xys(times, h.Series(func(r engine.Record) float64 { return r.Out.PCompElec })),
		"fans", xys(times, h.Series(func(r engine.Record) float64 { return r.Out.PFan })),
	)
	if err != nil {
		return err
	}
	return p.Save(chartWidth, chartHeight, path)
}

// Cooling draws the heat-rejection side: radiator, chiller, cabin
// evaporator and condenser return.
func Cooling(h engine.History, path string) error {
	p := newPlot("Cooling system activity", "heat flow [W]")
	times := h.Times()
	err := plotutil.AddLines(p,
		"radiator", xys(times, h.Series(func(r engine.Record) float64 { return r.Out.QRadiator })),
		"chiller", xys(times, h.Series(func(r engine.Record) float64 { return r.Out.QChiller })),
		"cabin evaporator", xys(times, h.Series(func(r engine.Record) float64 { return r.Out.QCabinCool })),
		"condenser return", xys(times, h.Series(func(r engine.Record) float64 { return r.Out.QCondenserToCoolant })),
	)
	if err != nil {
		return err
	}
	return p.Save(chartWidth, chartHeight, path)
}

// All renders the standard chart set into dir and returns the paths.
func All(h engine.History, pr *params.Params, dir string) ([]string, error) {
	charts := []struct {
		name   string
		render func(string) error
	}{
		{"temperatures.png", func(path string) error { return Temperatures(h, pr, path) }},
		{"power.png", func(path string) error { return Power(h, path) }},
		{"cooling.png", func(path string) error { return Cooling(h, path) }},
	}
	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		path := filepath.Join(dir, c.name)
		if err := c.render(path); err != nil {
			return nil, fmt.Errorf("render %s: %w", c.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
