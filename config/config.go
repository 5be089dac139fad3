package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// Server configuration
	Server struct {
		Port int `env:"PORT" envDefault:"3000"`

		// Deadline for a single storage round-trip (in seconds); expiry is
		// treated as a storage outage, not a client error
		RequestTimeout int `env:"REQUEST_TIMEOUT" envDefault:"10"`
	}

	// Database configuration; DATABASE_URL wins over the individual fields
	Database struct {
		URL string `env:"DATABASE_URL"`

		Host     string `env:"DB_HOST" envDefault:"localhost"`
		Port     int    `env:"DB_PORT" envDefault:"5432"`
		User     string `env:"DB_USER" envDefault:"postgres"`
		Password string `env:"DB_PASSWORD" envDefault:"password"`
		Name     string `env:"DB_NAME" envDefault:"realestate"`
		SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

		// Pool sizing, set once at process start
		MaxOpenConns int `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
		MaxIdleConns int `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`

		// Idle connection lifetime in seconds
		ConnMaxIdleTime int `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"30"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN returns the PostgreSQL connection string for the configured database.
func (c *Config) DSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
