package logging

import (
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/waterviewsrl/IronDomo/config"
)

func TestInitializeSetsLevelAndFormatter(t *testing.T) {
	Initialize(config.LogConfig{Level: "debug", Formatter: "json"})

	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level, got %v", log.GetLevel())
	}
	if _, ok := log.StandardLogger().Formatter.(*log.JSONFormatter); !ok {
		t.Fatalf("expected JSONFormatter, got %T", log.StandardLogger().Formatter)
	}
}

func TestInitializeDefaultsToTextFormatter(t *testing.T) {
	Initialize(config.LogConfig{Level: "info", Formatter: "text"})

	if _, ok := log.StandardLogger().Formatter.(*log.TextFormatter); !ok {
		t.Fatalf("expected TextFormatter, got %T", log.StandardLogger().Formatter)
	}
}

func TestInitializeIgnoresUnknownLevel(t *testing.T) {
	log.SetLevel(log.InfoLevel)
	Initialize(config.LogConfig{Level: "not-a-level", Formatter: "text"})

	if log.GetLevel() != log.InfoLevel {
		t.Fatalf("unknown level should leave the current level unchanged, got %v", log.GetLevel())
	}
}
