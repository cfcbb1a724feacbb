package config

import (
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/local-library/pkg/circuit_breaker"
	"github.com/Astemirdum/local-library/pkg/kafka"
	"github.com/Astemirdum/local-library/pkg/logger"
	"github.com/Astemirdum/local-library/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"CATALOG_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"CATALOG_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration
}

type Auth struct {
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
}

// Session configures the cookie store behind the home page visit counter.
type Session struct {
	Secret string `envconfig:"SESSION_SECRET" required:"true"`
	MaxAge int    `envconfig:"SESSION_MAX_AGE" default:"86400"`
	Secure bool   `envconfig:"SESSION_SECURE"`
}

type Config struct {
	Server         HTTPServer             `yaml:"server"`
	Database       postgres.DB            `yaml:"db"`
	Kafka          kafka.Config           `yaml:"kafka"`
	CircuitBreaker circuit_breaker.Config `yaml:"circuitBreaker"`
	Auth           Auth                   `yaml:"-" json:"-"`
	Session        Session                `yaml:"-" json:"-"`
	Log            logger.Log             `yaml:"log"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment. Options set values the environment leaves untouched.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := envconfig.Process("", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
	})

	return cfg
}
