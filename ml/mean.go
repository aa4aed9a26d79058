package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// MeanModel predicts the arithmetic mean of the dataset it was fitted on.
type MeanModel struct {
	meanValue float64
	fitted    bool
}

func (m *MeanModel) Fit(values []float64) error {
	if len(values) == 0 {
		return ErrEmptyDataset
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m.meanValue = sum / float64(len(values))
	m.fitted = true
	return nil
}

func (m *MeanModel) Predict(height float64) (float64, error) {
	_ = height
	if !m.fitted {
		return 0, ErrNotFitted
	}
	return m.meanValue, nil
}

func (m *MeanModel) Type() string { return TypeMean }

func (m *MeanModel) Value() float64 { return m.meanValue }

func (m *MeanModel) Save(path string) error {
	if !m.fitted {
		return ErrNotFitted
	}
	payload, err := json.Marshal(artifact{ModelType: TypeMean, YValue: m.meanValue})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (m *MeanModel) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return err
	}
	if a.ModelType != TypeMean {
		return fmt.Errorf("artifact is %q, not %q", a.ModelType, TypeMean)
	}
	m.meanValue = a.YValue
	m.fitted = true
	return nil
}
