package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr      = "localhost:3000"
	DefaultStorageDir      = "./uploads"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 15 * time.Second
)

type Config struct {
	ListenAddr      string        `yaml:"listen_addr" json:"listen_addr" validate:"required"`
	StorageDir      string        `yaml:"storage_dir" json:"storage_dir" validate:"required"`
	Verbose         bool          `yaml:"verbose" json:"verbose"`
	LogLevel        string        `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" validate:"gte=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" json:"max_upload_bytes" validate:"gte=0"`
}

var validate = validator.New()

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		ListenAddr:      DefaultListenAddr,
		StorageDir:      DefaultStorageDir,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Load читает YAML-конфигурацию (если файл есть), применяет ENV-переопределения и возвращает актуальную структуру.
func Load() (*Config, error) {
	c := Default()

	path := getenv("CONFIG_PATH", "./config.yaml")
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// файла нет, работаем на дефолтах и ENV
	default:
		return nil, err
	}

	// ENV override
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("STORAGE_DIR"); v != "" {
		c.StorageDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Verbose = b
		}
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	return c, nil
}

// Validate проверяет конфигурацию по struct-тегам.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
		}
		return err
	}

	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
