package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SEND_INTERVAL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.SendInterval != 500*time.Millisecond {
		t.Fatalf("send interval = %v", cfg.SendInterval)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("driver = %q", cfg.DBDriver)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("GIN_MODE", "bogus")
	t.Setenv("SEND_INTERVAL", "2s")
	t.Setenv("APP_URL", "https://app.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.LogLevel != "warn" || cfg.GinMode != "release" {
		t.Fatalf("normalization failed: %+v", cfg)
	}
	if cfg.SendInterval != 2*time.Second {
		t.Fatalf("send interval = %v", cfg.SendInterval)
	}
	if cfg.AppURL != "https://app.example.com" {
		t.Fatalf("app url = %q", cfg.AppURL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"bad driver", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "mysql"}},
		{"bad level", map[string]string{"JWT_SECRET": "s", "LOG_LEVEL": "trace"}},
		{"bad ratio", map[string]string{"JWT_SECRET": "s", "OTEL_TRACES_SAMPLER_ARG": "1.5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestSetupLogger(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	for in, want := range map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"info":  zerolog.InfoLevel,
		"":      zerolog.InfoLevel,
	} {
		SetupLogger(&Config{LogLevel: in})
		if got := zerolog.GlobalLevel(); got != want {
			t.Fatalf("level %q: got %v, want %v", in, got, want)
		}
	}
}
