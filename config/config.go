// Package config provides configuration loading and management for the
// hhw-brick toolchain.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/export"
)

// Config represents the complete toolchain configuration
type Config struct {
	Tables      TablesConfig      `yaml:"tables"`
	Output      OutputConfig      `yaml:"output"`
	Vocabulary  VocabularyConfig  `yaml:"vocabulary"`
	Batch       BatchConfig       `yaml:"batch"`
	Conformance ConformanceConfig `yaml:"conformance"`
	NATS        NATSConfig        `yaml:"nats"`
}

// TablesConfig locates the input tables
type TablesConfig struct {
	// Metadata is the path to the building metadata table (.csv or .xlsx)
	Metadata string `yaml:"metadata"`
	// Vars is the path to the sensor availability table (.csv or .xlsx)
	Vars string `yaml:"vars"`
}

// OutputConfig configures where run artifacts land
type OutputConfig struct {
	// Dir is the directory for serialized graphs and reports
	Dir string `yaml:"dir"`
	// Format is the graph serialization format (turtle, ntriples, jsonld)
	Format string `yaml:"format"`
	// GroundTruth is the filename for the ground truth CSV (empty = skip)
	GroundTruth string `yaml:"ground_truth"`
	// Summary is the filename for the batch summary (empty = stdout only)
	Summary string `yaml:"summary"`
	// Warnings is the filename for the per-building warnings listing
	// (empty = skip)
	Warnings string `yaml:"warnings"`
}

// VocabularyConfig configures the sensor role vocabulary
type VocabularyConfig struct {
	// Mapping is the path to a sensor mapping YAML (empty = built-in)
	Mapping string `yaml:"mapping"`
	// Watch reloads the mapping file when it changes on disk
	Watch bool `yaml:"watch"`
}

// BatchConfig configures batch runs
type BatchConfig struct {
	// Workers is the worker pool size
	Workers int `yaml:"workers"`
	// SystemFilter restricts runs to one system family (empty = all)
	SystemFilter string `yaml:"system_filter"`
}

// ConformanceConfig configures the external ontology checker
type ConformanceConfig struct {
	// Command is the checker executable (empty = conformance unknown)
	Command string `yaml:"command"`
	// Args are passed before the graph path and ruleset
	Args []string `yaml:"args"`
	// Ruleset names the rules the checker should apply
	Ruleset string `yaml:"ruleset"`
	// Timeout bounds a single checker invocation
	Timeout time.Duration `yaml:"timeout"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled)
	URL string `yaml:"url"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:    "output",
			Format: string(export.FormatTurtle),
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Conformance: ConformanceConfig{
			Timeout: time.Minute,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1")
	}
	if c.Conformance.Timeout < 0 {
		return fmt.Errorf("conformance.timeout must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Tables
	if other.Tables.Metadata != "" {
		c.Tables.Metadata = other.Tables.Metadata
	}
	if other.Tables.Vars != "" {
		c.Tables.Vars = other.Tables.Vars
	}

	// Output
	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.GroundTruth != "" {
		c.Output.GroundTruth = other.Output.GroundTruth
	}
	if other.Output.Summary != "" {
		c.Output.Summary = other.Output.Summary
	}
	if other.Output.Warnings != "" {
		c.Output.Warnings = other.Output.Warnings
	}

	// Vocabulary
	if other.Vocabulary.Mapping != "" {
		c.Vocabulary.Mapping = other.Vocabulary.Mapping
	}
	if other.Vocabulary.Watch {
		c.Vocabulary.Watch = true
	}

	// Batch
	if other.Batch.Workers != 0 {
		c.Batch.Workers = other.Batch.Workers
	}
	if other.Batch.SystemFilter != "" {
		c.Batch.SystemFilter = other.Batch.SystemFilter
	}

	// Conformance
	if other.Conformance.Command != "" {
		c.Conformance.Command = other.Conformance.Command
	}
	if len(other.Conformance.Args) > 0 {
		c.Conformance.Args = other.Conformance.Args
	}
	if other.Conformance.Ruleset != "" {
		c.Conformance.Ruleset = other.Conformance.Ruleset
	}
	if other.Conformance.Timeout != 0 {
		c.Conformance.Timeout = other.Conformance.Timeout
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
}
