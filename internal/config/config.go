package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Addr             string
	DatabaseURL      string
	TickEvery        time.Duration
	SchedulerEnabled bool
	StartupSeed      bool
	AdminPassword    string
	DiscordToken     string
	DiscordChannelID string
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("FISHBANKS_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:             addr,
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TickEvery:        envDurationDefault("FISHBANKS_TICK_EVERY", 15*time.Minute),
		SchedulerEnabled: envBoolDefault("FISHBANKS_SCHEDULER", true),
		StartupSeed:      envBoolDefault("FISHBANKS_STARTUP_SEED", true),
		AdminPassword:    strings.TrimSpace(os.Getenv("FISHBANKS_ADMIN_PASSWORD")),
		DiscordToken:     strings.TrimSpace(os.Getenv("FISHBANKS_DISCORD_TOKEN")),
		DiscordChannelID: strings.TrimSpace(os.Getenv("FISHBANKS_DISCORD_CHANNEL")),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.TickEvery < time.Second {
		return cfg, fmt.Errorf("FISHBANKS_TICK_EVERY must be at least 1s")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("FBK_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
