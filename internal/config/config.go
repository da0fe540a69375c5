// Package config loads service configuration from FAREGATE_-prefixed
// environment variables.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"prod"`
	Port   string `envconfig:"PORT" default:"8080"`

	SessionBaseURL   string `envconfig:"SESSION_BASE_URL" default:"http://localhost:9101"`
	AerolinkBaseURL  string `envconfig:"AEROLINK_BASE_URL" default:"http://localhost:9102"`
	SkybridgeBaseURL string `envconfig:"SKYBRIDGE_BASE_URL" default:"http://localhost:9103"`

	SessionTimeout time.Duration `envconfig:"SESSION_TIMEOUT" default:"5s"`
	AdapterTimeout time.Duration `envconfig:"ADAPTER_TIMEOUT" default:"8s"`
	OverallTimeout time.Duration `envconfig:"OVERALL_TIMEOUT" default:"20s"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"10m"`

	CacheEnabled  bool          `envconfig:"CACHE_ENABLED" default:"true"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	RedisTTL      time.Duration `envconfig:"REDIS_TTL" default:"5m"`

	ProviderRPS   float64 `envconfig:"PROVIDER_RPS" default:"10"`
	ProviderBurst int     `envconfig:"PROVIDER_BURST" default:"20"`
}

func Load() (Config, error) {
	var c Config
	err := envconfig.Process("FAREGATE", &c)
	return c, err
}
