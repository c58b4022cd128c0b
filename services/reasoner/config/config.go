// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads reasoner configuration.
//
// Values are layered: defaults, then a YAML or JSON file, then TABLEAU_*
// environment variables. The result is validated before use.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianTableau/services/reasoner/engine"
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid config")

// Config contains all reasoner configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after
// creation.
type Config struct {
	// Budget bounds each check.
	Budget BudgetConfig `json:"budget" yaml:"budget"`

	// Blocking selects the blocking strategy.
	Blocking BlockingConfig `json:"blocking" yaml:"blocking"`

	// Ingestion controls ontology loading.
	Ingestion IngestionConfig `json:"ingestion" yaml:"ingestion"`

	// Classification controls the classifier.
	Classification ClassificationConfig `json:"classification" yaml:"classification"`

	// Observability controls logs, traces and metrics.
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// BudgetConfig limits one check. Zero disables a limit.
type BudgetConfig struct {
	MaxSteps    int           `json:"max_steps" yaml:"max_steps" validate:"gte=0"`
	MaxNodes    int           `json:"max_nodes" yaml:"max_nodes" validate:"gte=0"`
	MaxBranches int           `json:"max_branches" yaml:"max_branches" validate:"gte=0"`
	TimeLimit   time.Duration `json:"time_limit" yaml:"time_limit" validate:"gte=0"`
}

// BlockingConfig selects how generated nodes are blocked.
type BlockingConfig struct {
	Strategy string `json:"strategy" yaml:"strategy" validate:"oneof=auto subset equality pairwise"`
}

// IngestionConfig controls ontology loading.
type IngestionConfig struct {
	StrictAxioms bool `json:"strict_axioms" yaml:"strict_axioms"`
}

// ClassificationConfig controls the classifier.
type ClassificationConfig struct {
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency" validate:"gte=0,lte=1024"`
	CacheSize      int `json:"cache_size" yaml:"cache_size" validate:"gt=0"`
}

// ObservabilityConfig controls logs, traces and metrics.
type ObservabilityConfig struct {
	LogLevel       string `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogJSON        bool   `json:"log_json" yaml:"log_json"`
	TraceExporter  string `json:"trace_exporter" yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string `json:"metric_exporter" yaml:"metric_exporter" validate:"oneof=none stdout prometheus"`
	ServiceName    string `json:"service_name" yaml:"service_name" validate:"required"`
}

// Default returns the default configuration.
func Default() Config {
	b := engine.DefaultBudgetConfig()
	return Config{
		Budget: BudgetConfig{
			MaxSteps:    b.MaxSteps,
			MaxNodes:    b.MaxNodes,
			MaxBranches: b.MaxBranches,
			TimeLimit:   b.TimeLimit,
		},
		Blocking: BlockingConfig{Strategy: "auto"},
		Classification: ClassificationConfig{
			MaxConcurrency: 0,
			CacheSize:      4096,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			TraceExporter:  "none",
			MetricExporter: "none",
			ServiceName:    "tableau",
		},
	}
}

// Load reads configuration with priority env > file > defaults.
//
// Inputs:
//
//	path - YAML or JSON file. Empty or missing means defaults only.
//
// Outputs:
//
//	Config - The merged configuration.
//	error - A malformed file, or ErrInvalidConfig.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

// loadEnv applies TABLEAU_* overrides. A malformed value is an error rather
// than silently ignored.
func loadEnv(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"TABLEAU_MAX_STEPS", &cfg.Budget.MaxSteps},
		{"TABLEAU_MAX_NODES", &cfg.Budget.MaxNodes},
		{"TABLEAU_MAX_BRANCHES", &cfg.Budget.MaxBranches},
		{"TABLEAU_MAX_CONCURRENCY", &cfg.Classification.MaxConcurrency},
		{"TABLEAU_CACHE_SIZE", &cfg.Classification.CacheSize},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = i
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"TABLEAU_STRICT_AXIOMS", &cfg.Ingestion.StrictAxioms},
		{"TABLEAU_LOG_JSON", &cfg.Observability.LogJSON},
	}
	for _, e := range bools {
		if v := os.Getenv(e.key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = b
		}
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"TABLEAU_BLOCKING", &cfg.Blocking.Strategy},
		{"TABLEAU_LOG_LEVEL", &cfg.Observability.LogLevel},
		{"TABLEAU_TRACE_EXPORTER", &cfg.Observability.TraceExporter},
		{"TABLEAU_METRIC_EXPORTER", &cfg.Observability.MetricExporter},
		{"TABLEAU_SERVICE_NAME", &cfg.Observability.ServiceName},
	}
	for _, e := range strs {
		if v := os.Getenv(e.key); v != "" {
			*e.dst = v
		}
	}

	if v := os.Getenv("TABLEAU_TIME_LIMIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TABLEAU_TIME_LIMIT: %w", err)
		}
		cfg.Budget.TimeLimit = d
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// EngineBudget converts the budget section for the engine.
func (c Config) EngineBudget() engine.BudgetConfig {
	return engine.BudgetConfig{
		MaxSteps:    c.Budget.MaxSteps,
		MaxNodes:    c.Budget.MaxNodes,
		MaxBranches: c.Budget.MaxBranches,
		TimeLimit:   c.Budget.TimeLimit,
	}
}

// ClassifierConfig converts the classification section for the engine.
func (c Config) ClassifierConfig() engine.ClassifierConfig {
	return engine.ClassifierConfig{
		MaxConcurrency: c.Classification.MaxConcurrency,
		CacheSize:      c.Classification.CacheSize,
	}
}
