// Package config содержит логику чтения конфигурации сервиса администрирования счетов.
package config

import (
	"flag"
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	DBHost      string `env:"DB_HOST"`
	DBPort      string `env:"DB_PORT"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_DATABASE"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и
// переменных окружения. Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8999", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8999"
	}

	if cfg.DatabaseURI == "" {
		cfg.DatabaseURI = buildDatabaseURI(cfg)
	}

	return cfg, nil
}

// buildDatabaseURI собирает DSN из отдельных переменных DB_*, как это делал
// исходный бэкенд дашборда.
func buildDatabaseURI(cfg *Config) string {
	if cfg.DBHost == "" {
		return ""
	}

	host := cfg.DBHost
	if cfg.DBPort != "" {
		host = host + ":" + cfg.DBPort
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + cfg.DBName,
	}
	if cfg.DBUser != "" {
		u.User = url.UserPassword(cfg.DBUser, cfg.DBPassword)
	}

	return u.String()
}
