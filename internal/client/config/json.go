package config

import (
	"encoding/json"
	"os"

	"github.com/resqlink/resq-go/internal/flagx"
	"github.com/resqlink/resq-go/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be written either as strings like "30s"
// or as integer nanoseconds. Parsed values are copied into the runtime
// Config.
type JSONConfig struct {
	BackendURL      string         `json:"backend_url"`
	APIKey          string         `json:"api_key"`
	AppOrigin       string         `json:"app_origin"`
	DefaultCity     string         `json:"default_city"`
	CacheDBPath     string         `json:"cache_db_path"`
	RefreshInterval timex.Duration `json:"refresh_interval"`
}

// parseJSON overlays Config with values loaded from the JSON file named by
// the -c/-config flags. Absent flag means no JSON source. Only fields
// present in the file override the current values.
func parseJSON(cfg *Config) {
	path := flagx.JSONConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BackendURL != "" {
		cfg.BackendURL = jc.BackendURL
	}
	if jc.APIKey != "" {
		cfg.APIKey = jc.APIKey
	}
	if jc.AppOrigin != "" {
		cfg.AppOrigin = jc.AppOrigin
	}
	if jc.DefaultCity != "" {
		cfg.DefaultCity = jc.DefaultCity
	}
	if jc.CacheDBPath != "" {
		cfg.CacheDBPath = jc.CacheDBPath
	}
	if jc.RefreshInterval.Duration > 0 {
		cfg.RefreshInterval = jc.RefreshInterval.Duration
	}
}
