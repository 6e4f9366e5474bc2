package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "eventdesk")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg := Load()
	if cfg.AccessTTL != 8*24*time.Hour {
		t.Errorf("AccessTTL = %v", cfg.AccessTTL)
	}
	if cfg.ResetTTL != 48*time.Hour {
		t.Errorf("ResetTTL = %v", cfg.ResetTTL)
	}
	if cfg.BcryptCost != 10 || cfg.OpenSignup || cfg.EmailsEnabled {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Port != "8080" || cfg.DBPort != "3306" {
		t.Errorf("unexpected ports: %q %q", cfg.Port, cfg.DBPort)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("OPEN_REGISTRATION", "yes")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("FIRST_SUPERUSER", "admin@example.com")
	t.Setenv("FIRST_SUPERUSER_PASSWORD", "changethis")
	cfg := Load()
	if cfg.AccessTTL != 15*time.Minute || !cfg.OpenSignup || cfg.BcryptCost != 12 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.FirstSuperuser != "admin@example.com" {
		t.Errorf("FirstSuperuser = %q", cfg.FirstSuperuser)
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("EVENTDESK_DOTENV_PROBE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EVENTDESK_DOTENV_PROBE", "")
	os.Unsetenv("EVENTDESK_DOTENV_PROBE")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("EVENTDESK_DOTENV_PROBE"); got != "from-file" {
		t.Fatalf("probe = %q", got)
	}
}

func TestRateLimitNormalization(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 || cfg.RefillTokens != 1 || cfg.RefillInterval != 2*time.Second {
		t.Errorf("unexpected bucket: %+v", cfg)
	}
	if cfg.TTL != 10*time.Second {
		t.Errorf("TTL = %v, want 5 refill intervals", cfg.TTL)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "90s")
	if envBool("X_BOOL", true) {
		t.Error("envBool should parse off")
	}
	if envInt("X_INT", 7) != 7 {
		t.Error("envInt should fall back on bad input")
	}
	if envDur("X_DUR", 0) != 90*time.Second {
		t.Error("envDur should parse 90s")
	}
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "3")
	opts := RedisOptions()
	if opts.Addr != "cache:6380" || opts.DB != 3 || opts.TLSConfig != nil {
		t.Errorf("unexpected options: %+v", opts)
	}
	t.Setenv("REDIS_HOST", "r1")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_TLS", "1")
	opts = RedisOptions()
	if opts.Addr != "r1:6379" || opts.TLSConfig == nil {
		t.Errorf("host/port should win: %+v", opts)
	}
}
