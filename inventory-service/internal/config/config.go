package config

import (
	"time"

	pkgconfig "github.com/fjod/go_cart/pkg/config"
)

type Config struct {
	HTTPPort string `env:"INVENTORY_HTTP_PORT" envDefault:"8081"`
	Env      string `env:"APP_ENV"             envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"           envDefault:"info"`

	// InitialStock seeds the store, product id to amount.
	InitialStock map[int64]int `env:"INVENTORY_INITIAL_STOCK" envDefault:"1:3,2:5,3:2,4:1,5:5,6:10" envSeparator:"," envKeyValSeparator:":"`

	OTelEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := pkgconfig.ParseEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
