package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadModel reads a serialized artifact and returns the matching variant.
func LoadModel(path string) (Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}

	switch a.ModelType {
	case TypeConstant:
		return NewConstantModel(a.YValue), nil
	case TypeMean:
		return &MeanModel{meanValue: a.YValue, fitted: true}, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", a.ModelType)
	}
}
