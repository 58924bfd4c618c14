// Package config loads IronDomo's broker, worker, and client configuration
// through Viper, the way plantd's services load theirs: a named config file
// overlaid with environment variables and a map of hard defaults.
package config

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LokiConfig points the structured logger at a Loki push endpoint.
type LokiConfig struct {
	Address string            `mapstructure:"address"`
	Labels  map[string]string `mapstructure:"labels"`
}

// LogConfig selects the logrus formatter, level, and optional Loki hook.
type LogConfig struct {
	Formatter string     `mapstructure:"formatter"`
	Level     string     `mapstructure:"level"`
	Loki      LokiConfig `mapstructure:"loki"`
}

// ServiceConfig names this process for logging and health reporting.
type ServiceConfig struct {
	ID string `mapstructure:"id"`
}

// CurveConfig configures the broker's encrypted endpoint.
type CurveConfig struct {
	// PublicKey and SecretKey are this process's own Z85-encoded CurveZMQ
	// keypair: the broker's server keypair, or a worker's client keypair.
	PublicKey string `mapstructure:"public-key"`
	SecretKey string `mapstructure:"secret-key"`

	// CredentialsLocation, if set, is a directory of client certificates
	// the authenticator reloads on every heartbeat. Leave both this and
	// CredentialsCallback unset to allow any CurveZMQ client through.
	CredentialsLocation string `mapstructure:"credentials-location"`
}

// BrokerConfig is the root configuration for the broker binary.
type BrokerConfig struct {
	Env               string        `mapstructure:"env"`
	PlainEndpoint     string        `mapstructure:"plain-endpoint"`
	EncryptedEndpoint string        `mapstructure:"encrypted-endpoint"`
	PublishEndpoint   string        `mapstructure:"publish-endpoint"`
	HealthPort        int           `mapstructure:"health-port"`
	Curve             CurveConfig   `mapstructure:"curve"`
	Log               LogConfig     `mapstructure:"log"`
	Service           ServiceConfig `mapstructure:"service"`
}

// WorkerConfig is the root configuration for a generic worker binary.
type WorkerConfig struct {
	Env       string        `mapstructure:"env"`
	Endpoint  string        `mapstructure:"endpoint"`
	Service   string        `mapstructure:"service"`
	ServerKey string        `mapstructure:"server-key"`
	Curve     CurveConfig   `mapstructure:"curve"`
	Log       LogConfig     `mapstructure:"log"`
}

var (
	lock            sync.Mutex
	brokerInstance  *BrokerConfig
	workerInstance  *WorkerConfig
)

// BrokerDefaults are the fallback values used when neither a config file
// nor an environment variable supplies a setting.
var BrokerDefaults = map[string]interface{}{
	"env":                "development",
	"plain-endpoint":     "tcp://*:9797",
	"encrypted-endpoint":  "",
	"publish-endpoint":   "",
	"health-port":        8080,
	"log.formatter":      "text",
	"log.level":          "info",
	"log.loki.address":   "http://localhost:3100",
	"log.loki.labels":    map[string]string{"app": "irondomo-broker", "environment": "development"},
	"service.id":         "org.irondomo.Broker",
}

// WorkerDefaults are the fallback values for a worker binary.
var WorkerDefaults = map[string]interface{}{
	"env":            "development",
	"endpoint":       "tcp://localhost:9797",
	"service":        "echo",
	"log.formatter":  "text",
	"log.level":      "info",
	"service.id":     "org.irondomo.Worker",
}

// LoadConfigWithDefaults populates target (a pointer to a config struct)
// from a YAML file named name (searched in ".", "./config" and
// "/etc/irondomo"), environment variables prefixed IRONDOMO_, and defaults.
// Environment variables override the file, and the file overrides the
// defaults.
func LoadConfigWithDefaults(name string, target interface{}, defaults map[string]interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/irondomo")

	v.SetEnvPrefix("irondomo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		log.WithField("name", name).Debug("no config file found, using defaults and environment")
	}

	return v.Unmarshal(target)
}

// GetBrokerConfig returns the broker configuration singleton, loading it on
// first use.
func GetBrokerConfig() *BrokerConfig {
	lock.Lock()
	defer lock.Unlock()
	if brokerInstance == nil {
		brokerInstance = &BrokerConfig{}
		if err := LoadConfigWithDefaults("broker", brokerInstance, BrokerDefaults); err != nil {
			log.WithError(err).Fatal("error reading broker config file")
		}
	}
	log.Tracef("broker config: %+v", brokerInstance)
	return brokerInstance
}

// GetWorkerConfig returns the worker configuration singleton, loading it on
// first use.
func GetWorkerConfig() *WorkerConfig {
	lock.Lock()
	defer lock.Unlock()
	if workerInstance == nil {
		workerInstance = &WorkerConfig{}
		if err := LoadConfigWithDefaults("worker", workerInstance, WorkerDefaults); err != nil {
			log.WithError(err).Fatal("error reading worker config file")
		}
	}
	log.Tracef("worker config: %+v", workerInstance)
	return workerInstance
}
