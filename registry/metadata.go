// Package registry owns the production slot: which model artifact is
// being served, and the provenance record explaining how it was made.
package registry

// Metadata is the single source of truth consulted at prediction time.
// Field names match the production.json wire format; data_dvc_md5 and
// git_commit are empty strings when the lookup degraded.
type Metadata struct {
	RunID       string  `json:"run_id"`
	Trainer     string  `json:"trainer"`
	ModelType   string  `json:"model_type"`
	YValue      float64 `json:"y_value"`
	MeanHeightM float64 `json:"mean_height_m"`
	NRows       int     `json:"n_rows"`
	DataDVCMD5  string  `json:"data_dvc_md5"`
	GitCommit   string  `json:"git_commit"`
	ModelPath   string  `json:"model_path"`
	PromotedAt  string  `json:"promoted_at_utc"`
}

// HasDataVersion reports whether the dataset version hash resolved.
func (m Metadata) HasDataVersion() bool { return m.DataDVCMD5 != "" }

// HasCodeVersion reports whether the commit id resolved.
func (m Metadata) HasCodeVersion() bool { return m.GitCommit != "" }

// AuditEntry is one line of the append-only retrain log.
type AuditEntry struct {
	Metadata
	LoggedAt string `json:"logged_at_utc"`
}
