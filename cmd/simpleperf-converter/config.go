package main

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	ServiceConfig struct {
		Environment string `yaml:"environment" env:"SENTRY_ENVIRONMENT" env-default:"development"`
		SentryDSN   string `yaml:"sentry_dsn" env:"SENTRY_DSN"`
		LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

		Port            string        `yaml:"port" env:"PORT" env-default:"8080"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
		MaxCaptureSize  int64         `yaml:"max_capture_size" env:"MAX_CAPTURE_SIZE" env-default:"104857600"`

		// ProfilesBucket is a bucket URL, gs://sentry-profiles in production.
		ProfilesBucket string `yaml:"profiles_bucket" env:"PROFILES_BUCKET" env-default:"mem://"`

		ProfilingKafkaBrokers []string `yaml:"profiling_kafka_brokers" env:"PROFILING_KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
		ProfilesKafkaTopic    string   `yaml:"profiles_kafka_topic" env:"PROFILES_KAFKA_TOPIC" env-default:"converted-profiles"`
	}
)

// loadServiceConfig reads the configuration file at path, if any, and
// overrides it with the environment.
func loadServiceConfig(path string) (ServiceConfig, error) {
	var c ServiceConfig
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &c)
	} else {
		err = cleanenv.ReadEnv(&c)
	}
	return c, err
}
