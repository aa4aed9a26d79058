package db

// Tracker adapts the run tables to the trainer's tracking interface.
type Tracker struct{}

func (Tracker) CreateRun(experiment string) (string, error) {
	return CreateRun(experiment)
}

func (Tracker) LogParam(runID, name, value string) error {
	return LogParam(runID, name, value)
}

func (Tracker) LogMetric(runID, name string, value float64) error {
	return LogMetric(runID, name, value)
}

func (Tracker) LogArtifact(runID, name, path string) error {
	return LogArtifact(runID, name, path)
}
