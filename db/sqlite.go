package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

var ErrRunNotFound = errors.New("run not found")

// InitDB opens the experiment tracking database and creates its schema.
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL UNIQUE,
        experiment TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS run_params (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        name TEXT NOT NULL,
        value TEXT,
        UNIQUE(run_id, name)
    );
    CREATE TABLE IF NOT EXISTS run_metrics (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        name TEXT NOT NULL,
        value REAL,
        UNIQUE(run_id, name)
    );
    CREATE TABLE IF NOT EXISTS run_artifacts (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        name TEXT NOT NULL,
        path TEXT NOT NULL,
        UNIQUE(run_id, name)
    );
    `

	_, err = database.Exec(query)
	return err
}

// Close closes the tracking database.
func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}

// Run is one experiment run with everything logged against it.
type Run struct {
	RunID      string             `json:"run_id"`
	Experiment string             `json:"experiment"`
	CreatedAt  time.Time          `json:"created_at"`
	Params     map[string]string  `json:"params"`
	Metrics    map[string]float64 `json:"metrics"`
	Artifacts  map[string]string  `json:"artifacts"`
}

// CreateRun registers a new run and returns its id.
func CreateRun(experiment string) (string, error) {
	runID := uuid.NewString()
	_, err := database.Exec(
		"INSERT INTO runs (run_id, experiment, created_at) VALUES (?, ?, ?)",
		runID, experiment, time.Now().UTC(),
	)
	if err != nil {
		return "", err
	}
	return runID, nil
}

func LogParam(runID, name, value string) error {
	_, err := database.Exec(
		"INSERT OR REPLACE INTO run_params (run_id, name, value) VALUES (?, ?, ?)",
		runID, name, value,
	)
	return err
}

func LogMetric(runID, name string, value float64) error {
	_, err := database.Exec(
		"INSERT OR REPLACE INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)",
		runID, name, value,
	)
	return err
}

func LogArtifact(runID, name, path string) error {
	_, err := database.Exec(
		"INSERT OR REPLACE INTO run_artifacts (run_id, name, path) VALUES (?, ?, ?)",
		runID, name, path,
	)
	return err
}

// GetRun returns one run with its params, metrics, and artifacts.
func GetRun(runID string) (*Run, error) {
	run := &Run{RunID: runID}
	err := database.QueryRow(
		"SELECT experiment, created_at FROM runs WHERE run_id = ?", runID,
	).Scan(&run.Experiment, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := attachRunDetails(run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(
		"SELECT run_id, experiment, created_at FROM runs ORDER BY id DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.RunID, &run.Experiment, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if err := attachRunDetails(&runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func attachRunDetails(run *Run) error {
	run.Params = make(map[string]string)
	run.Metrics = make(map[string]float64)
	run.Artifacts = make(map[string]string)

	rows, err := database.Query("SELECT name, value FROM run_params WHERE run_id = ?", run.RunID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			rows.Close()
			return err
		}
		run.Params[name] = value
	}
	rows.Close()

	rows, err = database.Query("SELECT name, value FROM run_metrics WHERE run_id = ?", run.RunID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			rows.Close()
			return err
		}
		run.Metrics[name] = value
	}
	rows.Close()

	rows, err = database.Query("SELECT name, path FROM run_artifacts WHERE run_id = ?", run.RunID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			rows.Close()
			return err
		}
		run.Artifacts[name] = path
	}
	rows.Close()

	return nil
}
