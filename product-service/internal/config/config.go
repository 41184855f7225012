package config

import (
	"time"

	pkgconfig "github.com/fjod/go_cart/pkg/config"
)

type Config struct {
	HTTPPort string `env:"PRODUCT_HTTP_PORT" envDefault:"8082"`
	Env      string `env:"APP_ENV"           envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"         envDefault:"info"`
	DBPath   string `env:"DB_PATH"           envDefault:"products.db"`

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
