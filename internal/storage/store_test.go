package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pathintegral/mppi/internal/dynamo"
	"github.com/pathintegral/mppi/internal/experiment"
)

func sampleResult() *experiment.Result {
	return &experiment.Result{
		States: []dynamo.State{
			{3.14, 0.0},
			{3.05, -0.4},
		},
		Controls: []dynamo.Control{
			{1.2},
		},
		Times:      []float64{0.0, 0.05},
		MinCosts:   []float64{8.1},
		MeanCosts:  []float64{12.5},
		Metrics:    map[string]float64{"control_effort": 1.44},
		StepsTaken: 1,
	}
}

func sampleInfo() RunInfo {
	return RunInfo{
		World:      "pendulum",
		Dt:         0.05,
		Seed:       42,
		Integrator: "rk4",
		Lambda:     1.0,
		Samples:    100,
		Horizon:    30,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(sampleInfo(), sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.World != "pendulum" {
		t.Errorf("expected world 'pendulum', got '%s'", meta.World)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Lambda != 1.0 || meta.Samples != 100 || meta.Horizon != 30 {
		t.Errorf("planner settings lost: %+v", meta)
	}
	if meta.Metrics["control_effort"] != 1.44 {
		t.Errorf("expected control_effort 1.44, got %f", meta.Metrics["control_effort"])
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 2 {
		t.Errorf("expected 2 states, got %d", len(states))
	}
	if len(times) != 2 {
		t.Errorf("expected 2 times, got %d", len(times))
	}
	if len(states[0]) != 3 { // x0, x1, u0
		t.Errorf("expected 3 columns per row, got %d", len(states[0]))
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(sampleInfo(), sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(sampleInfo(), sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "states.csv"} {
		path := filepath.Join(tmpDir, runID, name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONTo(&buf, sampleInfo(), sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if data.World != "pendulum" {
		t.Errorf("world = %s, want pendulum", data.World)
	}
	if len(data.States) != 2 || len(data.MinCosts) != 1 {
		t.Errorf("trajectory shape wrong: %d states, %d min costs", len(data.States), len(data.MinCosts))
	}
}
