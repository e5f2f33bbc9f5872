package config

import (
	"testing"
	"time"
)

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fishbanks")
	t.Setenv("PORT", "")
	t.Setenv("FISHBANKS_API_ADDR", "")
	t.Setenv("FISHBANKS_TICK_EVERY", "")
	t.Setenv("FISHBANKS_SCHEDULER", "")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.TickEvery != 15*time.Minute {
		t.Errorf("TickEvery = %v, want 15m", cfg.TickEvery)
	}
	if !cfg.SchedulerEnabled {
		t.Error("scheduler disabled by default")
	}
	if !cfg.StartupSeed {
		t.Error("startup seed disabled by default")
	}
}

func TestLoadAPIFromEnvPortOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fishbanks")
	t.Setenv("PORT", "9090")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Addr)
	}
}

func TestLoadAPIFromEnvRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadAPIFromEnvRejectsTinyTick(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fishbanks")
	t.Setenv("FISHBANKS_TICK_EVERY", "100ms")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatal("expected error for sub-second tick interval")
	}
}

func TestLoadCLIFromEnvTrimsSlash(t *testing.T) {
	t.Setenv("FBK_API_BASE_URL", "https://play.example.com/")
	if got := LoadCLIFromEnv().APIBaseURL; got != "https://play.example.com" {
		t.Errorf("APIBaseURL = %q", got)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("FISHBANKS_TEST_STR", "  value  ")
	t.Setenv("FISHBANKS_TEST_DUR", "bogus")
	t.Setenv("FISHBANKS_TEST_BOOL", "false")

	if got := envDefault("FISHBANKS_TEST_STR", "x"); got != "value" {
		t.Errorf("envDefault = %q", got)
	}
	if got := envDurationDefault("FISHBANKS_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("bad duration not defaulted: %v", got)
	}
	if got := envBoolDefault("FISHBANKS_TEST_BOOL", true); got {
		t.Error("explicit false ignored")
	}
	if got := envBoolDefault("FISHBANKS_TEST_MISSING", true); !got {
		t.Error("missing bool did not fall back")
	}
}
