package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Output.Dir != "output" {
		t.Errorf("expected default output dir output, got %s", cfg.Output.Dir)
	}
	if cfg.Output.Format != "turtle" {
		t.Errorf("expected default format turtle, got %s", cfg.Output.Format)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("expected 4 default workers, got %d", cfg.Batch.Workers)
	}
	if cfg.Conformance.Timeout != time.Minute {
		t.Errorf("expected 1m conformance timeout, got %v", cfg.Conformance.Timeout)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("expected publishing disabled by default, got %s", cfg.NATS.URL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing output dir",
			modify:  func(c *Config) { c.Output.Dir = "" },
			wantErr: true,
		},
		{
			name:    "unsupported format",
			modify:  func(c *Config) { c.Output.Format = "rdfxml" },
			wantErr: true,
		},
		{
			name:    "format alias accepted",
			modify:  func(c *Config) { c.Output.Format = "ttl" },
			wantErr: false,
		},
		{
			name:    "zero workers",
			modify:  func(c *Config) { c.Batch.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "negative conformance timeout",
			modify:  func(c *Config) { c.Conformance.Timeout = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
tables:
  metadata: "data/metadata.csv"
  vars: "data/vars_available.csv"
output:
  dir: "graphs"
  format: "ntriples"
  ground_truth: "ground_truth.csv"
vocabulary:
  mapping: "mappings/custom.yaml"
  watch: true
batch:
  workers: 8
  system_filter: "district hw"
conformance:
  command: "brick-validate"
  args: ["--strict"]
  ruleset: "brick-1.3"
  timeout: 30s
nats:
  url: "nats://test:4222"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Tables.Metadata != "data/metadata.csv" {
		t.Errorf("expected metadata path data/metadata.csv, got %s", cfg.Tables.Metadata)
	}
	if cfg.Tables.Vars != "data/vars_available.csv" {
		t.Errorf("expected vars path data/vars_available.csv, got %s", cfg.Tables.Vars)
	}
	if cfg.Output.Dir != "graphs" {
		t.Errorf("expected output dir graphs, got %s", cfg.Output.Dir)
	}
	if cfg.Output.Format != "ntriples" {
		t.Errorf("expected format ntriples, got %s", cfg.Output.Format)
	}
	if !cfg.Vocabulary.Watch {
		t.Error("expected vocabulary watch enabled")
	}
	if cfg.Batch.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Batch.Workers)
	}
	if cfg.Conformance.Command != "brick-validate" {
		t.Errorf("expected conformance command brick-validate, got %s", cfg.Conformance.Command)
	}
	if cfg.Conformance.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Conformance.Timeout)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Tables: TablesConfig{
			Metadata: "/override/metadata.csv",
		},
		Batch: BatchConfig{
			Workers: 16,
		},
	}

	base.Merge(override)

	if base.Tables.Metadata != "/override/metadata.csv" {
		t.Errorf("expected metadata /override/metadata.csv, got %s", base.Tables.Metadata)
	}
	if base.Batch.Workers != 16 {
		t.Errorf("expected 16 workers, got %d", base.Batch.Workers)
	}
	// Format should remain from base since override didn't set it
	if base.Output.Format != "turtle" {
		t.Errorf("expected format to remain default, got %s", base.Output.Format)
	}
	if base.Conformance.Timeout != time.Minute {
		t.Errorf("expected timeout to remain default, got %v", base.Conformance.Timeout)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Output.Dir = "saved-graphs"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Output.Dir != "saved-graphs" {
		t.Errorf("expected output dir saved-graphs, got %s", loaded.Output.Dir)
	}
}
