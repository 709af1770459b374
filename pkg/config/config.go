// Package config holds the runtime configuration of the server.
package config

import (
	"os"
	"strconv"
	"strings"
)

// DefaultInitialTimeMs is the per-side clock allotment, 10 minutes.
const DefaultInitialTimeMs int64 = 600000

// Config carries everything the application needs at startup. Flags
// provide debug/port; the rest comes from the environment.
type Config struct {
	Debug bool
	Port  string

	DatabaseURL    string
	FrontendOrigin string
	APIKeys        []string
	InitialTimeMs  int64
}

// Load builds a Config from the given flag values plus the process
// environment.
func Load(debug bool, port string) *Config {
	cfg := &Config{
		Debug:         debug,
		Port:          port,
		InitialTimeMs: DefaultInitialTimeMs,
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.FrontendOrigin = strings.TrimSpace(os.Getenv("FRONTEND_PATH"))

	if v := strings.TrimSpace(os.Getenv("API_KEYS")); v != "" {
		for _, key := range strings.Split(v, ",") {
			if key = strings.TrimSpace(key); key != "" {
				cfg.APIKeys = append(cfg.APIKeys, key)
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("INITIAL_TIME_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.InitialTimeMs = n
		}
	}

	return cfg
}
