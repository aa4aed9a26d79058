package ml

import "errors"

const (
	TypeConstant = "constant"
	TypeMean     = "mean"
)

var (
	ErrEmptyDataset = errors.New("dataset has no observations")
	ErrNotFitted    = errors.New("model not fitted")
)

type Model interface {
	Fit(values []float64) error
	Predict(height float64) (float64, error)
	Type() string
	Value() float64
	Save(path string) error
	Load(path string) error
}

// ValidType reports whether kind names a known model variant.
func ValidType(kind string) bool {
	return kind == TypeConstant || kind == TypeMean
}
