package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// devSecret только для локальных команд; serve требует JWT_SECRET
const devSecret = "cafepos-dev-secret"

// Config параметры процесса из окружения и .env
type Config struct {
	HTTPAddr      string
	DBDriver      string
	DBDSN         string
	JWTSecret     string
	TokenTTL      time.Duration
	TicketDir     string
	PrintCommand  string
	Currency      string
	HashPasswords bool
}

// Load reads .env (if present) and then the environment.
func Load(logger *log.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && logger != nil {
		logger.Printf("no .env file loaded: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv строит конфигурацию из произвольного источника переменных
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		HTTPAddr:     orDefault(getenv("HTTP_ADDR"), ":9091"),
		DBDriver:     orDefault(getenv("DB_DRIVER"), "sqlite"),
		DBDSN:        orDefault(getenv("DB_DSN"), "cafe.db"),
		JWTSecret:    getenv("JWT_SECRET"),
		TokenTTL:     12 * time.Hour,
		TicketDir:    orDefault(getenv("TICKET_DIR"), "."),
		PrintCommand: getenv("PRINT_COMMAND"),
		Currency:     orDefault(getenv("CURRENCY"), "DH"),
	}
	switch cfg.DBDriver {
	case "sqlite", "mysql":
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be sqlite or mysql, got %q", cfg.DBDriver)
	}
	if v := getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_TTL %q", v)
		}
		cfg.TokenTTL = d
	}
	if v := getenv("HASH_PASSWORDS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HASH_PASSWORDS %q", v)
		}
		cfg.HashPasswords = b
	}
	return cfg, nil
}

// RequireSecret JWT_SECRET обязателен для HTTP сервера
func (c Config) RequireSecret() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	return nil
}

// Secret returns the configured secret or the development fallback.
func (c Config) Secret() []byte {
	if c.JWTSecret == "" {
		return []byte(devSecret)
	}
	return []byte(c.JWTSecret)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
