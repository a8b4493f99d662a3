package render

import (
	"context"
	"os"
	"testing"

	"github.com/camellia2077/EV-TMS-PLOT/internal/engine"
	"github.com/camellia2077/EV-TMS-PLOT/internal/params"
)

func TestAllWritesCharts(t *testing.T) {
	p := params.Default()
	p.Simulation.DurationS = 60
	e, err := engine.New(p, 3.0)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	paths, err := All(res.History, p, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Fatalf("paths = %v", paths)
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("missing chart %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Errorf("empty chart %s", path)
		}
	}
}
