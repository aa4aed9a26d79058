package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"traceserve/dataset"
	"traceserve/db"
	"traceserve/registry"
	"traceserve/train"
)

type Config struct {
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
	trainer := flag.String("trainer", "", "who is running this training (required)")
	modelType := flag.String("model_type", "constant", "model variant: constant or mean")
	yValue := flag.Float64("y_value", train.DefaultYValue, "constant model value")
	configPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	if *trainer == "" {
		log.Fatal("trainer is required")
	}

	// Look for config in root even if run from cmd/train/
	path := *configPath
	if _, err := os.Stat(path); os.IsNotExist(err) && !filepath.IsAbs(path) {
		path = filepath.Join("..", "..", *configPath)
	}

	config, err := loadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := db.InitDB(config.Tracking.DBPath); err != nil {
		log.Fatalf("Failed to initialize tracking database: %v", err)
	}
	defer db.Close()

	store, err := registry.NewFileStore(config.Registry.Root, nil)
	if err != nil {
		log.Fatalf("Failed to open production store: %v", err)
	}

	t := &train.Trainer{
		Experiment: config.Tracking.Experiment,
		Data: &dataset.Accessor{
			CSVPath: config.Data.CSVPath,
			DVCPath: config.Data.DVCPath,
		},
		Tracker: db.Tracker{},
		RepoDir: config.Registry.Root,
	}

	meta, err := t.TrainAndPromote(store, train.Request{
		Trainer:   *trainer,
		ModelType: *modelType,
		YValue:    yValue,
	})
	if err != nil {
		log.Fatalf("Train and promote failed: %v", err)
	}

	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode metadata: %v", err)
	}
	fmt.Println(string(payload))
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
