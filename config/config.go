// Package config 加载应用配置
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultModelPath 默认模型文件路径
const DefaultModelPath = "random_forest_model.onnx"

// Config 应用配置
type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		RateLimit      float64       `yaml:"rate_limit"`
		Burst          int           `yaml:"burst"`
	} `yaml:"http"`
	Model struct {
		Path        string `yaml:"path"`
		Type        string `yaml:"type"`
		InputName   string `yaml:"input_name"`
		OutputName  string `yaml:"output_name"`
		OnnxLibrary string `yaml:"onnx_library"`
		Watch       bool   `yaml:"watch"`
	} `yaml:"model"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`
	Sentry struct {
		DSN         string `yaml:"dsn"`
		Environment string `yaml:"environment"`
	} `yaml:"sentry"`
}

// Default 默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.Http.Port = 8501
	cfg.Http.Timeout = 30 * time.Second
	cfg.Http.AllowedOrigins = []string{"*"}
	cfg.Http.RateLimit = 20
	cfg.Http.Burst = 40
	cfg.Model.Path = DefaultModelPath
	cfg.Model.InputName = "float_input"
	cfg.Model.OutputName = "variable"
	cfg.Model.Watch = true
	cfg.Log.Level = "info"
	cfg.Log.MaxSizeMB = 50
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 28
	cfg.Sentry.Environment = "production"
	return cfg
}

// Load reads the YAML file at path on top of the defaults, then applies
// .env and environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	// .env 文件可选
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("HOUSEPRICE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HOUSEPRICE_PORT: %w", err)
		}
		c.Http.Port = port
	}
	if v := getenv("HOUSEPRICE_MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := getenv("HOUSEPRICE_MODEL_TYPE"); v != "" {
		c.Model.Type = strings.ToLower(v)
	}
	if v := getenv("HOUSEPRICE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("HOUSEPRICE_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := getenv("SENTRY_DSN"); v != "" {
		c.Sentry.DSN = v
	}
	if v := getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); v != "" {
		c.Model.OnnxLibrary = v
	}
	return nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http timeout must be positive")
	}
	if c.Http.RateLimit < 0 {
		return errors.New("http rate_limit must not be negative")
	}
	if c.Http.RateLimit > 0 && c.Http.Burst <= 0 {
		return errors.New("http burst must be positive when rate_limit is set")
	}
	if c.Model.Path == "" {
		return errors.New("model path is required")
	}
	return nil
}
