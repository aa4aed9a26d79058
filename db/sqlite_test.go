package db

import (
	"errors"
	"path/filepath"
	"testing"
)

func initTestDB(t *testing.T) {
	t.Helper()
	if err := InitDB(filepath.Join(t.TempDir(), "tracking.db")); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { Close() })
}

func TestCreateRunAndGet(t *testing.T) {
	initTestDB(t)

	runID, err := CreateRun("family-heights")
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	if err := LogParam(runID, "model_type", "mean"); err != nil {
		t.Fatalf("LogParam failed: %v", err)
	}
	if err := LogMetric(runID, "n_rows", 3); err != nil {
		t.Fatalf("LogMetric failed: %v", err)
	}
	if err := LogArtifact(runID, "model", "models/production/model.json"); err != nil {
		t.Fatalf("LogArtifact failed: %v", err)
	}

	run, err := GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Experiment != "family-heights" {
		t.Fatalf("unexpected experiment: %s", run.Experiment)
	}
	if run.Params["model_type"] != "mean" {
		t.Fatalf("unexpected params: %v", run.Params)
	}
	if run.Metrics["n_rows"] != 3 {
		t.Fatalf("unexpected metrics: %v", run.Metrics)
	}
	if run.Artifacts["model"] != "models/production/model.json" {
		t.Fatalf("unexpected artifacts: %v", run.Artifacts)
	}
}

func TestGetRunNotFound(t *testing.T) {
	initTestDB(t)

	if _, err := GetRun("no-such-run"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	initTestDB(t)

	first, err := CreateRun("exp")
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	second, err := CreateRun("exp")
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	runs, err := ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != second || runs[1].RunID != first {
		t.Fatalf("expected newest first, got %s then %s", runs[0].RunID, runs[1].RunID)
	}
}
