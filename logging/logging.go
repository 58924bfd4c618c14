// Package logging wires up the logrus formatter, level, and optional Loki
// hook shared by every IronDomo binary, the way plantd's proxy service does
// for its own process.
package logging

import (
	log "github.com/sirupsen/logrus"
	loki "github.com/yukitsune/lokirus"

	"github.com/waterviewsrl/IronDomo/config"
)

// Initialize applies cfg to the standard logrus logger: parses the level,
// picks the text or JSON formatter, and attaches a Loki hook when
// cfg.Loki.Address is set.
func Initialize(cfg config.LogConfig) {
	if level, err := log.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.Level).Warn("unrecognized log level, leaving default")
	}

	if cfg.Formatter == "json" {
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if cfg.Loki.Address == "" {
		return
	}

	labels := loki.Labels{}
	for k, v := range cfg.Loki.Labels {
		labels[k] = v
	}

	opts := loki.NewLokiHookOptions().
		WithLevelMap(loki.LevelMap{log.PanicLevel: "critical"}).
		WithFormatter(&log.JSONFormatter{}).
		WithStaticLabels(labels)

	hook := loki.NewLokiHookWithOpts(
		cfg.Loki.Address,
		opts,
		log.InfoLevel,
		log.WarnLevel,
		log.ErrorLevel,
		log.FatalLevel,
	)

	log.AddHook(hook)
}
