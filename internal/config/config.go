package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DB      DBConfig
	JWT     JWTConfig
	Email   EmailConfig
	Server  ServerConfig
	Sweep   SweepConfig
	GinMode string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type EmailConfig struct {
	SendGridKey string
	From        string
}

type ServerConfig struct {
	Port string
}

type SweepConfig struct {
	Interval time.Duration
}

// Load reads configuration from environment variables, falling back to
// development defaults. A .env file in the working directory is honored
// when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "getdone"),
			Password: getEnv("DB_PASSWORD", "getdone"),
			Name:     getEnv("DB_NAME", "getdone"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me-in-production"),
			TTL:    getEnvAsDuration("JWT_TTL", 10*time.Minute),
		},
		Email: EmailConfig{
			SendGridKey: getEnv("SENDGRID_API_KEY", ""),
			From:        getEnv("EMAIL_FROM", "no-reply@getdone.app"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
		},
		Sweep: SweepConfig{
			Interval: getEnvAsDuration("SWEEP_INTERVAL", time.Minute),
		},
		GinMode: getEnv("GIN_MODE", "debug"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
