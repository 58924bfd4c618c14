package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigWithDefaultsUsesDefaultsWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	var cfg BrokerConfig
	if err := LoadConfigWithDefaults("broker", &cfg, BrokerDefaults); err != nil {
		t.Fatalf("LoadConfigWithDefaults: %v", err)
	}

	if cfg.PlainEndpoint != "tcp://*:9797" {
		t.Fatalf("expected default plain endpoint, got %q", cfg.PlainEndpoint)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log level, got %q", cfg.Log.Level)
	}
	if cfg.Service.ID != "org.irondomo.Broker" {
		t.Fatalf("expected default service id, got %q", cfg.Service.ID)
	}
}

func TestLoadConfigWithDefaultsReadsFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	content := "plain-endpoint: tcp://*:6000\nlog:\n  level: debug\n"
	if err := os.WriteFile(filepath.Join(dir, "broker.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	var cfg BrokerConfig
	if err := LoadConfigWithDefaults("broker", &cfg, BrokerDefaults); err != nil {
		t.Fatalf("LoadConfigWithDefaults: %v", err)
	}

	if cfg.PlainEndpoint != "tcp://*:6000" {
		t.Fatalf("expected endpoint from file, got %q", cfg.PlainEndpoint)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected level from file, got %q", cfg.Log.Level)
	}
	// Values absent from the file still fall back to defaults.
	if cfg.Service.ID != "org.irondomo.Broker" {
		t.Fatalf("expected default service id to survive partial file, got %q", cfg.Service.ID)
	}
}
