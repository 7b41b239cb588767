package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	os.Unsetenv("MAX_UPLOAD_LENGTH")
	os.Unsetenv("ERROR_FIELD_NAME")
	os.Unsetenv("REQUIRE_HTTPS")
	os.Unsetenv("ACCOUNT_CACHE_TTL_SECONDS")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Pipeline.MaxUploadLength != 1048576 {
		t.Fatalf("MaxUploadLength = %d, want 1048576", cfg.Pipeline.MaxUploadLength)
	}
	if cfg.Pipeline.ErrorFieldName != "message" {
		t.Fatalf("ErrorFieldName = %q, want message", cfg.Pipeline.ErrorFieldName)
	}
	if cfg.Pipeline.RequireHTTPS {
		t.Fatalf("RequireHTTPS should default to false")
	}
	if cfg.Cache.AccountTTL != 0 {
		t.Fatalf("AccountTTL = %v, want 0 (directory applies the 5m default)", cfg.Cache.AccountTTL)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	os.Setenv("REQUIRE_HTTPS", "true")
	os.Setenv("ERROR_FIELD_NAME", "error")
	os.Setenv("ACCOUNT_CACHE_TTL_SECONDS", "120")
	os.Setenv("PROFILE_CACHE_TTL_SECONDS", "240")
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("REDIS_HOST", "localhost")
	defer func() {
		os.Unsetenv("REQUIRE_HTTPS")
		os.Unsetenv("ERROR_FIELD_NAME")
		os.Unsetenv("ACCOUNT_CACHE_TTL_SECONDS")
		os.Unsetenv("PROFILE_CACHE_TTL_SECONDS")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !cfg.Pipeline.RequireHTTPS {
		t.Fatalf("RequireHTTPS not picked up")
	}
	if cfg.Pipeline.ErrorFieldName != "error" {
		t.Fatalf("ErrorFieldName = %q, want error", cfg.Pipeline.ErrorFieldName)
	}
	if cfg.Cache.AccountTTL != 2*time.Minute {
		t.Fatalf("AccountTTL = %v, want 2m", cfg.Cache.AccountTTL)
	}
	if cfg.Cache.ProfileTTL != 4*time.Minute {
		t.Fatalf("ProfileTTL = %v, want 4m", cfg.Cache.ProfileTTL)
	}
	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
}
