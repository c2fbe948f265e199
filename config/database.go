package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"taponn"`
	Password string `env:"PASSWORD" envDefault:"taponn"`
	Name     string `env:"NAME"     envDefault:"taponn"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration for the issued-token store.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	// TokenPrefix namespaces issued-token keys.
	TokenPrefix string `env:"TOKEN_PREFIX" envDefault:"token:"`

	// DialTimeout bounds the initial connection attempt.
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
}
