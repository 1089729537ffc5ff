package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix префикс переменных окружения: DEFECT_STORAGE__DRIVER -> storage.driver
const EnvPrefix = "DEFECT_"

type Config struct {
	TelegramToken string           `koanf:"telegram_token"`
	Prediction    PredictionConfig `koanf:"prediction"`
	Storage       StorageConfig    `koanf:"storage"`
	Server        ServerConfig     `koanf:"server"`
	Log           LogConfig        `koanf:"log"`
	Telemetry     TelemetryConfig  `koanf:"telemetry"`
	Image         ImageConfig      `koanf:"image"`
}

type PredictionConfig struct {
	Endpoint string `koanf:"endpoint"`
	Timeout  string `koanf:"timeout"` // строка длительности, пусто значит без таймаута
}

type StorageConfig struct {
	Driver string `koanf:"driver"` // sqlite, file, memory
	Path   string `koanf:"path"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text, json
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
}

type ImageConfig struct {
	JPEGQuality int `koanf:"jpeg_quality"`
	MaxSide     int `koanf:"max_side"`
}

var defaults = map[string]any{
	"prediction.endpoint": "http://192.168.1.4:8000/predict/",
	"storage.driver":      "sqlite",
	"storage.path":        "history.db",
	"server.addr":         ":8080",
	"log.level":           "info",
	"log.format":          "text",
	"image.jpeg_quality":  80,
	"image.max_side":      1024,
}

// Load читает конфигурацию: .env, затем YAML-файл path (может отсутствовать), затем окружение.
func Load(path string) (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if cfg.TelegramToken == "" {
		cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет значения, которые нельзя исправить значением по умолчанию
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "file", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if _, err := c.PredictionTimeout(); err != nil {
		return err
	}
	return nil
}

// PredictionTimeout таймаут запроса к модели; 0 означает отсутствие таймаута
func (c *Config) PredictionTimeout() (time.Duration, error) {
	if c.Prediction.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Prediction.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid prediction.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid prediction.timeout: negative duration %s", d)
	}
	return d, nil
}
