package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	defaultEnvironment      = "development"
	defaultTimezone         = "UTC"
	defaultSweepInterval    = 10 * time.Minute
	defaultReservationGrace = 15 * time.Minute
)

type Config struct {
	DBDSN         string
	Environment   string
	LogLevel      string // пусто - уровень по умолчанию для окружения
	TelegramToken string // пусто - уведомления только в лог

	// Пользователи, которым при старте выдаётся роль administrator
	BootstrapAdmins []uuid.UUID

	SlotLocation     *time.Location
	SweepInterval    time.Duration
	ReservationGrace time.Duration
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv читает конфигурацию из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		Environment:   os.Getenv("ENV"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = defaultEnvironment
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	tz := os.Getenv("SLOT_TIMEZONE")
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("SLOT_TIMEZONE: %w", err)
	}
	cfg.SlotLocation = loc

	if cfg.SweepInterval, err = durationEnv("SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return nil, err
	}
	if cfg.ReservationGrace, err = durationEnv("RESERVATION_GRACE", defaultReservationGrace); err != nil {
		return nil, err
	}

	if cfg.BootstrapAdmins, err = uuidListEnv("BOOTSTRAP_ADMINS"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}

func uuidListEnv(key string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, raw := range strings.Split(os.Getenv(key), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
