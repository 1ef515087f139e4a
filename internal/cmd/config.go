package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the file-backed service configuration. Environment variables
// override the database section (see database.go) and PORT.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Game struct {
		Pairs int `yaml:"pairs"`
	} `yaml:"game"`
	Leaderboard struct {
		ID string `yaml:"id"`
	} `yaml:"leaderboard"`
	NATS struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
	Database struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"database"`
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

func defaultConfig() *Config {
	config := &Config{}
	config.Server.Port = "8080"
	config.Game.Pairs = 8
	config.Leaderboard.ID = "flipside.best_flips"
	config.NATS.URL = "nats://localhost:4222"
	config.NATS.StreamName = "LEADERBOARD_EVENTS"
	config.NATS.SubjectPrefix = "leaderboard.events"
	return config
}
