package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"ripple"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"ripple_dev_password"`
	DBName     string `envconfig:"DB_NAME" default:"ripple"`
	// RedisURL enables the cross-instance presence mirror when set.
	RedisURL  string `envconfig:"REDIS_URL" default:""`
	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	Dev       bool   `envconfig:"DEV" default:"false"`
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
