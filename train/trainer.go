// Package train fits a model variant against the tracked dataset and
// records the run with full provenance.
package train

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"traceserve/dataset"
	"traceserve/ml"
	"traceserve/registry"
)

// ErrInvalidRequest marks caller mistakes (blank trainer, unknown model
// type) so the HTTP layer can reject them as validation failures.
var ErrInvalidRequest = errors.New("invalid train request")

const DefaultYValue = 1.5

// Tracker is the experiment tracker contract the trainer logs against.
type Tracker interface {
	CreateRun(experiment string) (string, error)
	LogParam(runID, name, value string) error
	LogMetric(runID, name string, value float64) error
	LogArtifact(runID, name, path string) error
}

// Request describes one training call.
type Request struct {
	Trainer   string
	ModelType string
	YValue    *float64
}

// Result is a fitted artifact plus everything needed to promote it.
type Result struct {
	Model       ml.Model
	RunID       string
	ModelType   string
	YValue      float64
	MeanHeightM float64
	NRows       int
	DataDVCMD5  string
	GitCommit   string
}

type Trainer struct {
	Experiment string
	Data       *dataset.Accessor
	Tracker    Tracker
	RepoDir    string
	Logger     *zap.Logger
}

func (t *Trainer) logger() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}

// Train fits the requested variant and records the run. It does not
// touch the production slot.
func (t *Trainer) Train(req Request) (*Result, error) {
	trainer := strings.TrimSpace(req.Trainer)
	if trainer == "" {
		return nil, fmt.Errorf("%w: trainer must be a non-empty string", ErrInvalidRequest)
	}

	kind := strings.ToLower(strings.TrimSpace(req.ModelType))
	if kind == "" {
		kind = ml.TypeConstant
	}
	if !ml.ValidType(kind) {
		return nil, fmt.Errorf("%w: model_type must be %q or %q", ErrInvalidRequest, ml.TypeConstant, ml.TypeMean)
	}

	yValue := DefaultYValue
	if req.YValue != nil {
		yValue = *req.YValue
	}

	ds, err := t.Data.Load()
	if err != nil {
		return nil, err
	}
	mean := ds.Mean()
	nRows := ds.Count()

	// Version lookups degrade to absent rather than failing the run.
	dataMD5, hasData := t.Data.Version()
	commit, hasCommit := GitCommit(t.RepoDir)
	if !hasData {
		t.logger().Warn("dataset version unavailable, recording empty hash")
	}
	if !hasCommit {
		t.logger().Warn("code version unavailable, recording empty commit")
	}

	var model ml.Model
	effective := yValue
	switch kind {
	case ml.TypeConstant:
		model = ml.NewConstantModel(yValue)
	case ml.TypeMean:
		m := &ml.MeanModel{}
		if err := m.Fit(ds.Values()); err != nil {
			return nil, err
		}
		model = m
		effective = mean
	}

	runID, err := t.Tracker.CreateRun(t.Experiment)
	if err != nil {
		return nil, fmt.Errorf("create experiment run: %w", err)
	}

	params := map[string]string{
		"model_type":   kind,
		"trainer":      trainer,
		"data_dvc_md5": dataMD5,
		"git_commit":   commit,
	}
	if kind == ml.TypeConstant {
		params["y_value"] = strconv.FormatFloat(yValue, 'g', -1, 64)
	}
	for name, value := range params {
		if err := t.Tracker.LogParam(runID, name, value); err != nil {
			return nil, fmt.Errorf("log param %s: %w", name, err)
		}
	}
	if err := t.Tracker.LogMetric(runID, "n_rows", float64(nRows)); err != nil {
		return nil, fmt.Errorf("log metric n_rows: %w", err)
	}
	if err := t.Tracker.LogMetric(runID, "mean_height_m", mean); err != nil {
		return nil, fmt.Errorf("log metric mean_height_m: %w", err)
	}

	t.logger().Info("model trained",
		zap.String("run_id", runID),
		zap.String("model_type", kind),
		zap.String("trainer", trainer),
		zap.Int("n_rows", nRows),
		zap.Float64("mean_height_m", mean),
	)

	return &Result{
		Model:       model,
		RunID:       runID,
		ModelType:   kind,
		YValue:      effective,
		MeanHeightM: mean,
		NRows:       nRows,
		DataDVCMD5:  dataMD5,
		GitCommit:   commit,
	}, nil
}

// TrainAndPromote trains and then makes the result the production model.
func (t *Trainer) TrainAndPromote(store registry.Store, req Request) (registry.Metadata, error) {
	res, err := t.Train(req)
	if err != nil {
		return registry.Metadata{}, err
	}

	meta, err := store.Promote(res.Model, registry.Metadata{
		RunID:       res.RunID,
		Trainer:     strings.TrimSpace(req.Trainer),
		ModelType:   res.ModelType,
		YValue:      res.YValue,
		MeanHeightM: res.MeanHeightM,
		NRows:       res.NRows,
		DataDVCMD5:  res.DataDVCMD5,
		GitCommit:   res.GitCommit,
	})
	if err != nil {
		return registry.Metadata{}, err
	}

	if err := t.Tracker.LogArtifact(res.RunID, "model", meta.ModelPath); err != nil {
		t.logger().Warn("promoted but failed to log artifact",
			zap.String("run_id", res.RunID), zap.Error(err))
	}
	return meta, nil
}
