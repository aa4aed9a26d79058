package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"traceserve/dataset"
	"traceserve/db"
	"traceserve/ml"
	"traceserve/monitoring"
	"traceserve/registry"
	"traceserve/train"
)

// Retrainer 训练并晋升模型
type Retrainer interface {
	TrainAndPromote(store registry.Store, req train.Request) (registry.Metadata, error)
}

// AuditReader 读取再训练日志
type AuditReader interface {
	ReadAudit() ([]registry.AuditEntry, error)
}

var (
	productionStore registry.Store
	modelTrainer    Retrainer
	auditReader     AuditReader
	eventHub        *monitoring.Hub
)

// SetStore 设置生产模型存储
func SetStore(s registry.Store) {
	productionStore = s
}

// SetTrainer 设置训练器
func SetTrainer(t Retrainer) {
	modelTrainer = t
}

// SetAuditReader 设置日志读取器
func SetAuditReader(r AuditReader) {
	auditReader = r
}

// SetEventHub 设置事件中心
func SetEventHub(h *monitoring.Hub) {
	eventHub = h
}

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /predict", handlePredict)
	mux.HandleFunc("POST /retrain", handleRetrain)
	mux.HandleFunc("GET /runs", handleRuns)
	mux.HandleFunc("GET /audit", handleAudit)
	mux.HandleFunc("GET /ws/events", handleEvents)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if productionStore == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	meta, ok, err := productionStore.Production()
	if err != nil || !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "no_production_model"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"production": meta,
	})
}

type predictRequest struct {
	Height float64 `json:"height"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
	ModelType  string  `json:"model_type"`
	DataDVCMD5 string  `json:"data_dvc_md5"`
	GitCommit  string  `json:"git_commit"`
	RunID      string  `json:"run_id"`
	Trainer    string  `json:"trainer"`
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	if productionStore == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "height must be positive")
		return
	}

	model, meta, err := productionStore.Model()
	if errors.Is(err, registry.ErrNotReady) {
		writeError(w, http.StatusServiceUnavailable,
			"no production model available yet; call POST /retrain first to create and promote a model")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	y, err := model.Predict(req.Height)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Prediction: y,
		ModelType:  meta.ModelType,
		DataDVCMD5: meta.DataDVCMD5,
		GitCommit:  meta.GitCommit,
		RunID:      meta.RunID,
		Trainer:    meta.Trainer,
	})
}

type retrainRequest struct {
	Trainer   string   `json:"trainer"`
	ModelType string   `json:"model_type"`
	YValue    *float64 `json:"y_value"`
}

func handleRetrain(w http.ResponseWriter, r *http.Request) {
	if productionStore == nil || modelTrainer == nil {
		writeError(w, http.StatusServiceUnavailable, "trainer not initialized")
		return
	}

	var req retrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	meta, err := modelTrainer.TrainAndPromote(productionStore, train.Request{
		Trainer:   req.Trainer,
		ModelType: req.ModelType,
		YValue:    req.YValue,
	})
	if err != nil {
		if errors.Is(err, train.ErrInvalidRequest) || errors.Is(err, ml.ErrEmptyDataset) ||
			errors.Is(err, dataset.ErrNoObservations) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "retrain failed: "+err.Error())
		return
	}

	if eventHub != nil {
		eventHub.PublishPromotion(meta)
	}

	writeJSON(w, http.StatusOK, meta)
}

func handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := db.ListRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

func handleAudit(w http.ResponseWriter, r *http.Request) {
	if auditReader == nil {
		writeError(w, http.StatusServiceUnavailable, "audit log not initialized")
		return
	}

	entries, err := auditReader.ReadAudit()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func handleEvents(w http.ResponseWriter, r *http.Request) {
	if eventHub == nil {
		writeError(w, http.StatusServiceUnavailable, "event hub not initialized")
		return
	}
	eventHub.ServeHTTP(w, r)
}
