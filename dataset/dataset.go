// Package dataset reads the tracked height observations and resolves
// their content-addressed version.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var ErrNoObservations = errors.New("CSV contained 0 valid height values")

// heightColumns, in priority order. Values above 10 are treated as
// centimeters and converted to meters; the whole file is judged at once.
var heightColumns = []string{"height_cm", "height_m", "height"}

// Dataset is an immutable collection of heights, normalized to meters.
type Dataset struct {
	values []float64
}

func (d *Dataset) Values() []float64 { return d.values }

func (d *Dataset) Count() int { return len(d.values) }

func (d *Dataset) Mean() float64 {
	var sum float64
	for _, v := range d.values {
		sum += v
	}
	return sum / float64(len(d.values))
}

// Read parses a height CSV. It requires a header with one of the
// recognized height columns and at least one valid value.
func Read(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("CSV has no header row")
	}
	if err != nil {
		return nil, err
	}

	col := -1
	for _, candidate := range heightColumns {
		for i, name := range header {
			if strings.TrimSpace(name) == candidate {
				col = i
				break
			}
		}
		if col >= 0 {
			break
		}
	}
	if col < 0 {
		return nil, errors.New("CSV is missing a height column (expected height_cm, height_m, or height)")
	}

	var raw []float64
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if col >= len(record) {
			continue
		}
		cell := strings.TrimSpace(record[col])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid height value on data row %d: %q", row, cell)
		}
		raw = append(raw, v)
	}

	if len(raw) == 0 {
		return nil, ErrNoObservations
	}

	maxVal := raw[0]
	for _, v := range raw[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal > 10 {
		for i := range raw {
			raw[i] /= 100.0
		}
	}

	return &Dataset{values: raw}, nil
}
