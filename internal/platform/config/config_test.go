package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/salarizare")
	cfg := Load()
	if cfg.Addr != ":8080" || cfg.MigrationsDir != "migrations" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RecomputeInterval != 24*time.Hour {
		t.Fatalf("expected daily recompute, got %v", cfg.RecomputeInterval)
	}
	if cfg.UseS3() {
		t.Fatal("S3 should be off without a bucket")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/salarizare")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("S3_BUCKET", "payslips")
	t.Setenv("RUN_SEED", "not-a-bool")

	cfg := Load()
	if cfg.RateLimitPerSecond != 2.5 {
		t.Fatalf("expected 2.5, got %v", cfg.RateLimitPerSecond)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.UseS3() {
		t.Fatal("expected S3 storage")
	}
	if !cfg.RunSeed {
		t.Fatal("invalid bool should fall back to the default")
	}
}

func TestValidate(t *testing.T) {
	base := Config{DatabaseURL: "postgres://x", MaxBodyBytes: 4096, RateLimitPerSecond: 1, RateLimitBurst: 1, LogFormat: "json"}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	cases := map[string]func(c *Config){
		"missing db":     func(c *Config) { c.DatabaseURL = " " },
		"small body":     func(c *Config) { c.MaxBodyBytes = 10 },
		"zero rate":      func(c *Config) { c.RateLimitPerSecond = 0 },
		"zero burst":     func(c *Config) { c.RateLimitBurst = 0 },
		"bad log format": func(c *Config) { c.LogFormat = "xml" },
		"half s3 keys": func(c *Config) {
			c.Environment = "production"
			c.S3Bucket = "b"
			c.S3AccessKey = "k"
		},
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
