package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"HOUSEPRICE_PORT", "HOUSEPRICE_MODEL_PATH", "HOUSEPRICE_MODEL_TYPE",
		"HOUSEPRICE_LOG_LEVEL", "HOUSEPRICE_LOG_FILE", "SENTRY_DSN",
		"ONNXRUNTIME_SHARED_LIBRARY_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Http.Port != 8501 {
		t.Fatalf("expected default port 8501, got %d", cfg.Http.Port)
	}
	if cfg.Model.Path != DefaultModelPath {
		t.Fatalf("expected default model path, got %q", cfg.Model.Path)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http:
  port: 9000
  timeout: 5s
model:
  path: models/forest.json
  type: tree_ensemble
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Http.Port != 9000 {
		t.Errorf("port: got %d", cfg.Http.Port)
	}
	if cfg.Http.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v", cfg.Http.Timeout)
	}
	if cfg.Model.Path != "models/forest.json" || cfg.Model.Type != "tree_ensemble" {
		t.Errorf("model: got %+v", cfg.Model)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level: got %q", cfg.Log.Level)
	}
	// 未配置的字段保留默认值
	if cfg.Model.InputName != "float_input" {
		t.Errorf("input name: got %q", cfg.Model.InputName)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"HOUSEPRICE_PORT":       "7000",
		"HOUSEPRICE_MODEL_PATH": "/srv/model.onnx",
		"HOUSEPRICE_MODEL_TYPE": "ONNX",
		"SENTRY_DSN":            "https://key@sentry.example/1",
	}
	cfg := Default()
	if err := cfg.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Http.Port != 7000 {
		t.Errorf("port: got %d", cfg.Http.Port)
	}
	if cfg.Model.Path != "/srv/model.onnx" {
		t.Errorf("path: got %q", cfg.Model.Path)
	}
	if cfg.Model.Type != "onnx" {
		t.Errorf("type: got %q", cfg.Model.Type)
	}
	if cfg.Sentry.DSN == "" {
		t.Error("expected sentry dsn")
	}

	bad := Default()
	if err := bad.applyEnv(func(k string) string {
		if k == "HOUSEPRICE_PORT" {
			return "eighty"
		}
		return ""
	}); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Http.Port = 0 }},
		{"port too large", func(c *Config) { c.Http.Port = 70000 }},
		{"timeout", func(c *Config) { c.Http.Timeout = 0 }},
		{"negative rate", func(c *Config) { c.Http.RateLimit = -1 }},
		{"burst", func(c *Config) { c.Http.Burst = 0 }},
		{"model path", func(c *Config) { c.Model.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}
