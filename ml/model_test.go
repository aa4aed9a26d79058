package ml

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestMeanModelFit(t *testing.T) {
	model := &MeanModel{}
	if err := model.Fit([]float64{1.60, 1.70, 1.80}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	y, err := model.Predict(175)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(y-1.70) > 1e-9 {
		t.Fatalf("expected 1.70, got %v", y)
	}
}

func TestMeanModelFitEmpty(t *testing.T) {
	model := &MeanModel{}
	if err := model.Fit(nil); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestMeanModelPredictUnfitted(t *testing.T) {
	model := &MeanModel{}
	if _, err := model.Predict(1.7); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
}

func TestConstantModelPredict(t *testing.T) {
	model := NewConstantModel(1.5)
	for _, input := range []float64{0, 1.6, 250, -3} {
		y, err := model.Predict(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if y != 1.5 {
			t.Fatalf("expected 1.5 for input %v, got %v", input, y)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	mean := &MeanModel{}
	if err := mean.Fit([]float64{1.6, 1.8}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meanPath := filepath.Join(dir, "mean.json")
	if err := mean.Save(meanPath); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadModel(meanPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Type() != TypeMean {
		t.Fatalf("expected mean model, got %s", loaded.Type())
	}
	y, err := loaded.Predict(1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(y-1.7) > 1e-9 {
		t.Fatalf("expected 1.7, got %v", y)
	}
}

func TestSaveUnfittedMean(t *testing.T) {
	model := &MeanModel{}
	if err := model.Save(filepath.Join(t.TempDir(), "m.json")); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
}

func TestLoadModelUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	model := NewConstantModel(2)
	if err := model.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Value() != 2 {
		t.Fatalf("expected value 2, got %v", loaded.Value())
	}

	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}
