// Package config provides configuration loading and management for the SnipSnap application.
package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/roguepikachu/snipsnap/pkg/logger"
)

// Config holds environment configuration for the SnipSnap application.
type Config struct {
	// Port is the port on which the HTTP server listens.
	Port string `env:"SNIPSNAP_PORT" envDefault:"8080"`

	// PostgresURL takes precedence over the discrete Postgres settings when set.
	PostgresURL      string `env:"POSTGRES_URL"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"127.0.0.1"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"snipsnap"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int    `env:"POSTGRES_MAX_CONNS" envDefault:"10"`

	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheEnabled  bool          `env:"CACHE_ENABLED" envDefault:"true"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	JWTSecret string `env:"AUTH_JWT_SECRET"`
	JWTIssuer string `env:"AUTH_JWT_ISSUER"`

	// HideForbiddenTags makes get and rename on unattached tags answer 404 instead of 403.
	HideForbiddenTags bool `env:"TAG_HIDE_FORBIDDEN" envDefault:"true"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AutoMigrate     bool          `env:"AUTO_MIGRATE" envDefault:"true"`
}

// Conf holds the global configuration for the SnipSnap application.
var Conf Config

func loadDotEnv() {
	// Load .env files listed in DOTENV_PATHS into the environment.
	// Does not override existing environ variables.
	path := os.Getenv("DOTENV_PATHS")
	if path != "" {
		err := godotenv.Load(strings.Split(path, ",")...)
		if err != nil {
			logger.Fatal(context.Background(), err.Error())
		}
	}
}

// Load parses the environment into a fresh Config.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// InitConf initializes the global configuration by loading environment variables and .env files.
func InitConf() {
	loadDotEnv()

	c, err := Load()
	if err != nil {
		logger.Fatal(context.Background(), err.Error())
	}
	Conf = c
}
