package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// artifact is the on-disk representation shared by all model variants.
type artifact struct {
	ModelType string  `json:"model_type"`
	YValue    float64 `json:"y_value"`
}

// ConstantModel always predicts a configured value, ignoring the input.
type ConstantModel struct {
	yValue float64
}

func NewConstantModel(yValue float64) *ConstantModel {
	return &ConstantModel{yValue: yValue}
}

// Fit is a no-op: the parameter is fixed at construction.
func (m *ConstantModel) Fit(values []float64) error {
	return nil
}

func (m *ConstantModel) Predict(height float64) (float64, error) {
	_ = height
	return m.yValue, nil
}

func (m *ConstantModel) Type() string { return TypeConstant }

func (m *ConstantModel) Value() float64 { return m.yValue }

func (m *ConstantModel) Save(path string) error {
	payload, err := json.Marshal(artifact{ModelType: TypeConstant, YValue: m.yValue})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (m *ConstantModel) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return err
	}
	if a.ModelType != TypeConstant {
		return fmt.Errorf("artifact is %q, not %q", a.ModelType, TypeConstant)
	}
	m.yValue = a.YValue
	return nil
}
