package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"traceserve/ml"
)

// ErrNotReady means no model has been promoted to production yet.
var ErrNotReady = errors.New("no production model available yet")

const (
	productionFile = "production.json"
	auditFile      = "retrain_log.jsonl"
	modelFile      = "model.json"

	modelCacheSize = 16
)

// Store is the serving path's view of the production slot.
type Store interface {
	// Production returns the current metadata record; ok is false when
	// nothing has been promoted.
	Production() (meta Metadata, ok bool, err error)
	// Model returns the current artifact with its record, or ErrNotReady.
	Model() (ml.Model, Metadata, error)
	// Promote makes model the production artifact and records why.
	Promote(model ml.Model, meta Metadata) (Metadata, error)
}

// FileStore keeps the production slot on disk under root:
// metadata/production.json, metadata/retrain_log.jsonl, and
// models/production/model.json. Reads are served from a cached record
// refreshed on every promote (and by Watch for external writers).
type FileStore struct {
	root        string
	metadataDir string
	modelDir    string

	mu      sync.RWMutex
	current *Metadata

	models *lru.Cache[string, ml.Model]
	logger *zap.Logger
}

func NewFileStore(root string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{
		root:        root,
		metadataDir: filepath.Join(root, "metadata"),
		modelDir:    filepath.Join(root, "models", "production"),
		logger:      logger,
	}

	cache, err := lru.New[string, ml.Model](modelCacheSize)
	if err != nil {
		return nil, err
	}
	s.models = cache

	if err := os.MkdirAll(s.metadataDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.modelDir, 0o755); err != nil {
		return nil, err
	}

	s.reload()
	return s, nil
}

func (s *FileStore) productionPath() string {
	return filepath.Join(s.metadataDir, productionFile)
}

func (s *FileStore) auditPath() string {
	return filepath.Join(s.metadataDir, auditFile)
}

func (s *FileStore) Production() (Metadata, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Metadata{}, false, nil
	}
	return *s.current, true, nil
}

func (s *FileStore) Model() (ml.Model, Metadata, error) {
	meta, ok, err := s.Production()
	if err != nil {
		return nil, Metadata{}, err
	}
	if !ok || meta.ModelPath == "" {
		return nil, Metadata{}, ErrNotReady
	}

	if model, hit := s.models.Get(meta.RunID); hit {
		return model, meta, nil
	}

	path := meta.ModelPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	model, err := ml.LoadModel(path)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("load production model: %w", err)
	}
	s.models.Add(meta.RunID, model)
	return model, meta, nil
}

// Promote writes the artifact, atomically replaces production.json, and
// appends one audit line. Any failure before the audit append leaves the
// previous production state untouched and logs nothing.
func (s *FileStore) Promote(model ml.Model, meta Metadata) (Metadata, error) {
	target := filepath.Join(s.modelDir, modelFile)
	if err := s.writeModel(model, target); err != nil {
		return Metadata{}, fmt.Errorf("write production artifact: %w", err)
	}

	rel, err := filepath.Rel(s.root, target)
	if err != nil {
		rel = target
	}
	meta.ModelPath = filepath.ToSlash(rel)
	meta.PromotedAt = utcNow()

	if err := s.writeProduction(meta); err != nil {
		return Metadata{}, fmt.Errorf("write production metadata: %w", err)
	}

	// Promote has succeeded from the reader's point of view; the audit
	// append is last and gated on that.
	entry := AuditEntry{Metadata: meta, LoggedAt: utcNow()}
	if err := s.appendAudit(entry); err != nil {
		return Metadata{}, fmt.Errorf("append retrain log: %w", err)
	}

	s.mu.Lock()
	current := meta
	s.current = &current
	s.mu.Unlock()
	s.models.Add(meta.RunID, model)

	s.logger.Info("model promoted",
		zap.String("run_id", meta.RunID),
		zap.String("model_type", meta.ModelType),
		zap.String("trainer", meta.Trainer),
		zap.String("data_dvc_md5", meta.DataDVCMD5),
		zap.String("git_commit", meta.GitCommit),
	)
	return meta, nil
}

// writeModel saves the artifact to a temp file in the same directory and
// renames it over the slot, so a failed save never clobbers the old model.
func (s *FileStore) writeModel(model ml.Model, target string) error {
	tmp, err := os.CreateTemp(s.modelDir, modelFile+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := model.Save(tmpPath); err != nil {
		return err
	}
	return os.Rename(tmpPath, target)
}

// writeProduction replaces production.json with write-temp-fsync-rename
// so concurrent readers see the old record or the new one, never a mix.
func (s *FileStore) writeProduction(meta Metadata) error {
	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	payload = append(payload, '\n')

	tmp, err := os.CreateTemp(s.metadataDir, productionFile+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.productionPath())
}

func (s *FileStore) appendAudit(entry AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(s.auditPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(append(payload, '\n')); err != nil {
		return err
	}
	return file.Sync()
}

// reload re-reads production.json into the cached record. A missing,
// empty, or invalid file reads as "no production model", not an error.
func (s *FileStore) reload() {
	payload, err := os.ReadFile(s.productionPath())
	if err != nil || len(payload) == 0 {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		return
	}

	var meta Metadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		s.logger.Warn("invalid production metadata, treating as absent", zap.Error(err))
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.current = &meta
	s.mu.Unlock()
}

func utcNow() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}
