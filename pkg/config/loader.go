package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Initialize loads, merges, and validates agentcore.yaml (plus a sibling
// .env file, if present) from configDir. This is the primary configuration
// entry point used by cmd/agentcored.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	if err := loadDotEnv(configDir); err != nil {
		return nil, err
	}

	raw, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg, err := resolve(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configuration: %w", err)
	}

	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	log.Info("configuration initialized", "agents", len(cfg.Agents), "workers", cfg.Queue.WorkerCount)
	return cfg, nil
}

// loadDotEnv loads a .env file from configDir if present. A missing .env is
// not an error — environment variables may already be set by the process's
// host (container orchestrator, systemd unit, shell).
func loadDotEnv(configDir string) error {
	path := filepath.Join(configDir, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return &LoadError{File: ".env", Err: err}
	}
	return nil
}

func load(configDir string) (*YAMLConfig, error) {
	path := filepath.Join(configDir, "agentcore.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{File: path, Err: ErrConfigNotFound}
		}
		return nil, &LoadError{File: path, Err: err}
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg YAMLConfig
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, &LoadError{File: path, Err: fmt.Errorf("%w: %v", ErrInvalidYAML, err)}
	}
	return &cfg, nil
}

// resolve merges user-provided YAML over built-in defaults (user values
// win) and returns the ready-to-validate Config.
func resolve(raw *YAMLConfig) (*Config, error) {
	queue := DefaultQueueConfig()
	if raw.Queue != nil {
		if err := mergo.Merge(queue, raw.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge queue config: %w", err)
		}
	}

	pricing := raw.Pricing
	if pricing == nil {
		pricing = map[string]ModelPriceSpec{}
	}

	return &Config{
		Agents:  raw.Agents,
		Pricing: pricing,
		Queue:   queue,
		LLM:     raw.LLM,
	}, nil
}
