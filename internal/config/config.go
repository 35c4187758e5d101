package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "FULFILLMENT"

const (
	KeyConfigFile      = "config"
	KeyServiceName     = "service-name"
	KeyEnv             = "env"
	KeyHTTPAddr        = "http-addr"
	KeyShutdownTimeout = "shutdown-timeout"
	KeyStore           = "store"
	KeyDatabaseURL     = "database-url"
	KeySeedFile        = "seed-file"
	KeyKafkaBrokers    = "kafka-brokers"
	KeyKafkaTopic      = "kafka-topic"
	KeyOTelEndpoint    = "otel-endpoint"
	KeyOTelAuthHeader  = "otel-auth-header"
	KeyLogLevel        = "log-level"
	KeyBusBuffer       = "bus-buffer"
	KeyBusConcurrency  = "bus-concurrency"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	ServiceName     string
	Env             string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	Store           string
	DatabaseURL     string
	SeedFile        string
	KafkaBrokers    []string
	KafkaTopic      string
	OTelEndpoint    string
	OTelAuthHeader  string
	LogLevel        string
	BusBuffer       int
	BusConcurrency  int
}

// BindFlags registers every setting on fs with its default value.
func BindFlags(fs *pflag.FlagSet) {
	fs.String(KeyConfigFile, "", "config file (yaml, json or toml)")
	fs.String(KeyServiceName, "fulfillment-service", "service name reported in logs and traces")
	fs.String(KeyEnv, "dev", "deployment environment")
	fs.String(KeyHTTPAddr, ":8080", "HTTP listen address")
	fs.Duration(KeyShutdownTimeout, 10*time.Second, "graceful shutdown timeout")
	fs.String(KeyStore, StoreMemory, "inventory store: memory|postgres")
	fs.String(KeyDatabaseURL, "", "PostgreSQL connection string (store=postgres)")
	fs.String(KeySeedFile, "", "JSON fixture loaded into the store at startup")
	fs.String(KeyKafkaBrokers, "", "comma separated Kafka brokers for notifications")
	fs.String(KeyKafkaTopic, "fulfillment.notifications", "Kafka topic for notifications")
	fs.String(KeyOTelEndpoint, "", "OTLP/HTTP endpoint; empty disables export")
	fs.String(KeyOTelAuthHeader, "", "Authorization header sent to the OTLP endpoint")
	fs.String(KeyLogLevel, "info", "log level: debug|info|warn|error")
	fs.Int(KeyBusBuffer, 1024, "event bus queue capacity")
	fs.Int(KeyBusConcurrency, 8, "event bus handler concurrency")
}

// Load resolves settings from flags, FULFILLMENT_* env vars and an optional config file,
// in that order of precedence.
func Load(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	cfg := Config{
		ServiceName:     v.GetString(KeyServiceName),
		Env:             v.GetString(KeyEnv),
		HTTPAddr:        v.GetString(KeyHTTPAddr),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		Store:           strings.ToLower(v.GetString(KeyStore)),
		DatabaseURL:     v.GetString(KeyDatabaseURL),
		SeedFile:        v.GetString(KeySeedFile),
		KafkaBrokers:    splitList(v.GetString(KeyKafkaBrokers)),
		KafkaTopic:      v.GetString(KeyKafkaTopic),
		OTelEndpoint:    v.GetString(KeyOTelEndpoint),
		OTelAuthHeader:  v.GetString(KeyOTelAuthHeader),
		LogLevel:        v.GetString(KeyLogLevel),
		BusBuffer:       v.GetInt(KeyBusBuffer),
		BusConcurrency:  v.GetInt(KeyBusConcurrency),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: %s is required when %s=%s", ErrInvalid, KeyDatabaseURL, KeyStore, StorePostgres)
		}
	default:
		return fmt.Errorf("%w: unknown %s %q", ErrInvalid, KeyStore, c.Store)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("%w: %s is required with brokers", ErrInvalid, KeyKafkaTopic)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, KeyShutdownTimeout)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
