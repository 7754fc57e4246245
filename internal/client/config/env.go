package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the process environment,
// loading a .env file first when one exists. A missing .env is not an
// error; deployments may rely on real environment variables only.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("RESQ_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("RESQ_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("RESQ_APP_ORIGIN"); v != "" {
		cfg.AppOrigin = v
	}
	if v := os.Getenv("RESQ_DEFAULT_CITY"); v != "" {
		cfg.DefaultCity = v
	}
	if v := os.Getenv("RESQ_CACHE_DB"); v != "" {
		cfg.CacheDBPath = v
	}
	if v := os.Getenv("RESQ_REFRESH_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.RefreshInterval = time.Duration(secs) * time.Second
		}
	}
}
