package train

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"traceserve/dataset"
	"traceserve/ml"
	"traceserve/registry"
)

type fakeTracker struct {
	runs      []string
	params    map[string]string
	metrics   map[string]float64
	artifacts map[string]string
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		params:    make(map[string]string),
		metrics:   make(map[string]float64),
		artifacts: make(map[string]string),
	}
}

func (f *fakeTracker) CreateRun(experiment string) (string, error) {
	id := "run-" + string(rune('a'+len(f.runs)))
	f.runs = append(f.runs, id)
	return id, nil
}

func (f *fakeTracker) LogParam(runID, name, value string) error {
	f.params[name] = value
	return nil
}

func (f *fakeTracker) LogMetric(runID, name string, value float64) error {
	f.metrics[name] = value
	return nil
}

func (f *fakeTracker) LogArtifact(runID, name, path string) error {
	f.artifacts[name] = path
	return nil
}

func testTrainer(t *testing.T, csv string) (*Trainer, *fakeTracker, string) {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "family_heights.csv")
	if err := os.WriteFile(csvPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	tracker := newFakeTracker()
	trainer := &Trainer{
		Experiment: "family-heights",
		Data: &dataset.Accessor{
			CSVPath: csvPath,
			DVCPath: csvPath + ".dvc",
		},
		Tracker: tracker,
		RepoDir: dir,
	}
	return trainer, tracker, dir
}

func TestTrainMean(t *testing.T) {
	trainer, tracker, _ := testTrainer(t, "height_m\n1.60\n1.70\n1.80\n")

	res, err := trainer.Train(Request{Trainer: "alice", ModelType: "mean"})
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if math.Abs(res.YValue-1.70) > 1e-9 {
		t.Fatalf("expected parameter 1.70, got %v", res.YValue)
	}
	if res.NRows != 3 {
		t.Fatalf("expected 3 rows, got %d", res.NRows)
	}
	if res.RunID == "" {
		t.Fatal("expected a run id")
	}
	y, err := res.Model.Predict(200)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(y-1.70) > 1e-9 {
		t.Fatalf("expected 1.70, got %v", y)
	}

	if tracker.params["model_type"] != "mean" || tracker.params["trainer"] != "alice" {
		t.Fatalf("unexpected params: %v", tracker.params)
	}
	if tracker.metrics["n_rows"] != 3 {
		t.Fatalf("unexpected metrics: %v", tracker.metrics)
	}
}

func TestTrainConstantDefault(t *testing.T) {
	trainer, tracker, _ := testTrainer(t, "height_cm\n160\n170\n180\n")

	res, err := trainer.Train(Request{Trainer: "bob"})
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if res.ModelType != ml.TypeConstant {
		t.Fatalf("expected constant by default, got %s", res.ModelType)
	}
	if res.YValue != DefaultYValue {
		t.Fatalf("expected default 1.5, got %v", res.YValue)
	}
	if tracker.params["y_value"] != "1.5" {
		t.Fatalf("expected y_value param, got %v", tracker.params)
	}
}

func TestTrainConstantOverride(t *testing.T) {
	trainer, _, _ := testTrainer(t, "height_cm\n170\n")

	v := 2.25
	res, err := trainer.Train(Request{Trainer: "bob", ModelType: "constant", YValue: &v})
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	y, _ := res.Model.Predict(0)
	if y != 2.25 {
		t.Fatalf("expected 2.25, got %v", y)
	}
}

func TestTrainValidation(t *testing.T) {
	trainer, _, _ := testTrainer(t, "height_cm\n170\n")

	if _, err := trainer.Train(Request{Trainer: "  "}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for blank trainer, got %v", err)
	}
	if _, err := trainer.Train(Request{Trainer: "a", ModelType: "boost"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for unknown type, got %v", err)
	}
}

func TestTrainDegradedVersions(t *testing.T) {
	trainer, tracker, _ := testTrainer(t, "height_cm\n170\n")
	// Temp dir: no git repository and no .dvc pointer.
	trainer.RepoDir = t.TempDir()

	res, err := trainer.Train(Request{Trainer: "alice"})
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if res.DataDVCMD5 != "" || res.GitCommit != "" {
		t.Fatalf("expected empty version fields, got %q %q", res.DataDVCMD5, res.GitCommit)
	}
	if tracker.params["data_dvc_md5"] != "" || tracker.params["git_commit"] != "" {
		t.Fatalf("expected empty version params, got %v", tracker.params)
	}
}

func TestTrainAndPromote(t *testing.T) {
	trainer, tracker, dir := testTrainer(t, "height_m\n1.60\n1.70\n1.80\n")

	store, err := registry.NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	meta, err := trainer.TrainAndPromote(store, Request{Trainer: "alice", ModelType: "mean"})
	if err != nil {
		t.Fatalf("TrainAndPromote failed: %v", err)
	}
	if meta.ModelType != ml.TypeMean || meta.Trainer != "alice" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if math.Abs(meta.YValue-1.70) > 1e-9 {
		t.Fatalf("expected y_value 1.70, got %v", meta.YValue)
	}

	model, got, err := store.Model()
	if err != nil {
		t.Fatalf("Model failed: %v", err)
	}
	if got.RunID != meta.RunID {
		t.Fatalf("serving metadata does not match promotion: %s vs %s", got.RunID, meta.RunID)
	}
	y, _ := model.Predict(1.2)
	if math.Abs(y-1.70) > 1e-9 {
		t.Fatalf("expected 1.70, got %v", y)
	}

	if tracker.artifacts["model"] != meta.ModelPath {
		t.Fatalf("artifact not logged: %v", tracker.artifacts)
	}
}
