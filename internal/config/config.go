package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Corpus struct {
		CSVPath string `yaml:"csv_path"`
	} `yaml:"corpus"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Study struct {
		OriginalCount  int `yaml:"original_count"`
		GeneratedCount int `yaml:"generated_count"`

		// AcceptUnassignedRatings preserves the historical behavior of
		// accepting ratings for samples outside a participant's
		// assignment. Defaults to true.
		AcceptUnassignedRatings *bool `yaml:"accept_unassigned_ratings"`
	} `yaml:"study"`

	Static struct {
		Dir string `yaml:"dir"`
	} `yaml:"static"`
}

// LoadConfig loads configuration from a YAML file and applies defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8000"
	}

	if config.Corpus.CSVPath == "" {
		config.Corpus.CSVPath = "./MFV130Gen.csv"
	}

	if config.Database.Path == "" {
		config.Database.Path = "./data/data.db"
	}

	if config.Study.OriginalCount == 0 {
		config.Study.OriginalCount = 10
	}

	if config.Study.GeneratedCount == 0 {
		config.Study.GeneratedCount = 20
	}

	if config.Study.AcceptUnassignedRatings == nil {
		accept := true
		config.Study.AcceptUnassignedRatings = &accept
	}

	if config.Static.Dir == "" {
		config.Static.Dir = "./static"
	}

	// Expand environment variables in paths
	config.Corpus.CSVPath = os.ExpandEnv(config.Corpus.CSVPath)
	config.Database.Path = os.ExpandEnv(config.Database.Path)
	config.Static.Dir = os.ExpandEnv(config.Static.Dir)

	return config, nil
}
