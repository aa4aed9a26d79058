package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"traceserve/dataset"
	"traceserve/db"
	qhttp "traceserve/http"
	"traceserve/logging"
	"traceserve/monitoring"
	"traceserve/registry"
	"traceserve/train"
)

type Config struct {
	Http struct {
		Port           int `yaml:"port"`
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"http"`
	Log  logging.Config `yaml:"log"`
	Data struct {
		CSVPath string `yaml:"csv_path"`
		DVCPath string `yaml:"dvc_path"`
	} `yaml:"data"`
	Registry struct {
		Root string `yaml:"root"`
	} `yaml:"registry"`
	Tracking struct {
		DBPath     string `yaml:"db_path"`
		Experiment string `yaml:"experiment"`
	} `yaml:"tracking"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(config.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Sync()

	// 2. Initialize tracking database
	if err := db.InitDB(config.Tracking.DBPath); err != nil {
		logger.Fatal("failed to initialize tracking database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("tracking database initialized", zap.String("path", config.Tracking.DBPath))

	// 3. Production store + metadata watcher
	store, err := registry.NewFileStore(config.Registry.Root, logger)
	if err != nil {
		logger.Fatal("failed to open production store", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := store.Watch(ctx); err != nil {
		logger.Warn("metadata watcher unavailable", zap.Error(err))
	}

	// 4. Event hub + trainer
	hub := monitoring.NewHub(logger)
	go hub.Run()

	trainer := &train.Trainer{
		Experiment: config.Tracking.Experiment,
		Data: &dataset.Accessor{
			CSVPath: config.Data.CSVPath,
			DVCPath: config.Data.DVCPath,
		},
		Tracker: db.Tracker{},
		RepoDir: config.Registry.Root,
		Logger:  logger,
	}

	qhttp.SetStore(store)
	qhttp.SetTrainer(trainer)
	qhttp.SetAuditReader(store)
	qhttp.SetEventHub(hub)

	// 5. Start HTTP server
	serverConfig := qhttp.DefaultServerConfig()
	if config.Http.Port > 0 {
		serverConfig.Port = config.Http.Port
	}
	if config.Http.TimeoutSeconds > 0 {
		serverConfig.Timeout = time.Duration(config.Http.TimeoutSeconds) * time.Second
	}

	server := qhttp.NewServer(serverConfig, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 6. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	hub.Stop()

	logger.Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	if config.Registry.Root == "" {
		config.Registry.Root = "."
	}
	return &config, nil
}
