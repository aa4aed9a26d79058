package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestReadMeters(t *testing.T) {
	path := writeFile(t, "heights.csv", "height_m\n1.60\n1.70\n1.80\n")
	ds, err := Read(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Count() != 3 {
		t.Fatalf("expected 3 rows, got %d", ds.Count())
	}
	if math.Abs(ds.Mean()-1.70) > 1e-9 {
		t.Fatalf("expected mean 1.70, got %v", ds.Mean())
	}
}

func TestReadCentimetersNormalized(t *testing.T) {
	path := writeFile(t, "heights.csv", "name,height_cm\na,160\nb,170\nc,180\n")
	ds, err := Read(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(ds.Mean()-1.70) > 1e-9 {
		t.Fatalf("expected mean 1.70, got %v", ds.Mean())
	}
}

func TestReadSkipsBlankCells(t *testing.T) {
	path := writeFile(t, "heights.csv", "height\n1.6\n\n1.8\n")
	ds, err := Read(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Count() != 2 {
		t.Fatalf("expected 2 rows, got %d", ds.Count())
	}
}

func TestReadInvalidValue(t *testing.T) {
	path := writeFile(t, "heights.csv", "height_cm\n170\nnot-a-number\n")
	if _, err := Read(path); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
}

func TestReadMissingColumn(t *testing.T) {
	path := writeFile(t, "heights.csv", "weight\n70\n")
	if _, err := Read(path); err == nil {
		t.Fatal("expected error for missing height column")
	}
}

func TestReadEmpty(t *testing.T) {
	path := writeFile(t, "heights.csv", "height_cm\n\n")
	if _, err := Read(path); !errors.Is(err, ErrNoObservations) {
		t.Fatalf("expected ErrNoObservations, got %v", err)
	}
}

func TestVersionFromPointer(t *testing.T) {
	dvc := writeFile(t, "heights.csv.dvc", "outs:\n- md5: d41d8cd98f00b204e9800998ecf8427e\n  path: heights.csv\n")
	a := &Accessor{DVCPath: dvc}
	md5, ok := a.Version()
	if !ok {
		t.Fatal("expected version to resolve")
	}
	if md5 != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("unexpected md5: %s", md5)
	}
}

func TestVersionDegradesToAbsent(t *testing.T) {
	a := &Accessor{DVCPath: filepath.Join(t.TempDir(), "missing.dvc")}
	if _, ok := a.Version(); ok {
		t.Fatal("expected absent version for missing pointer")
	}

	bad := writeFile(t, "bad.dvc", "outs: {not a list}\n")
	a = &Accessor{DVCPath: bad}
	if _, ok := a.Version(); ok {
		t.Fatal("expected absent version for malformed pointer")
	}
}

func TestLoadWithoutCSVOrPointer(t *testing.T) {
	dir := t.TempDir()
	a := &Accessor{
		CSVPath: filepath.Join(dir, "heights.csv"),
		DVCPath: filepath.Join(dir, "heights.csv.dvc"),
	}
	if _, err := a.Load(); err == nil {
		t.Fatal("expected error when neither CSV nor pointer exists")
	}
}
