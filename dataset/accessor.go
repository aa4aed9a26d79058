package dataset

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Accessor binds a tracked CSV to its DVC pointer file.
type Accessor struct {
	CSVPath string
	DVCPath string
}

// dvcPointer matches the subset of the .dvc file format we read.
type dvcPointer struct {
	Outs []struct {
		MD5 string `yaml:"md5"`
	} `yaml:"outs"`
}

// Load materializes the CSV if needed and reads it.
func (a *Accessor) Load() (*Dataset, error) {
	path, err := a.materialize()
	if err != nil {
		return nil, err
	}
	return Read(path)
}

// Version returns the content hash recorded in the DVC pointer.
// Missing or malformed pointers degrade to absent, never an error.
func (a *Accessor) Version() (string, bool) {
	payload, err := os.ReadFile(a.DVCPath)
	if err != nil {
		return "", false
	}
	var ptr dvcPointer
	if err := yaml.Unmarshal(payload, &ptr); err != nil {
		return "", false
	}
	if len(ptr.Outs) == 0 || ptr.Outs[0].MD5 == "" {
		return "", false
	}
	return ptr.Outs[0].MD5, true
}

// materialize ensures the CSV exists, running `dvc pull` when only the
// pointer is present.
func (a *Accessor) materialize() (string, error) {
	if _, err := os.Stat(a.CSVPath); err == nil {
		return a.CSVPath, nil
	}

	if _, err := os.Stat(a.DVCPath); err != nil {
		return "", fmt.Errorf("dataset not found and no DVC pointer present: %s", a.CSVPath)
	}

	cmd := exec.Command("dvc", "pull", filepath.Base(a.CSVPath))
	cmd.Dir = filepath.Dir(a.CSVPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("dvc pull %s failed: %w\n%s", a.CSVPath, err, strings.TrimSpace(string(out)))
	}

	if _, err := os.Stat(a.CSVPath); err != nil {
		return "", fmt.Errorf("dvc pull reported success but %s is still missing", a.CSVPath)
	}
	return a.CSVPath, nil
}
