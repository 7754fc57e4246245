package config

import "time"

// Config holds runtime settings for the ResQ client.
//
// Fields:
//   - BackendURL: base URL of the hosted backend (auth/rest/storage roots).
//   - APIKey: the backend's publishable API key, sent on every request.
//   - AppOrigin: origin used to derive email redirect targets.
//   - DefaultCity: city written into lazily created and fallback profiles.
//   - CacheDBPath: path of the local SQLite cache.
//   - RefreshInterval: how often the background token refresher checks.
type Config struct {
	BackendURL      string
	APIKey          string
	AppOrigin       string
	DefaultCity     string
	CacheDBPath     string
	RefreshInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://127.0.0.1:54321"
	c.AppOrigin = "http://localhost:3000"
	c.DefaultCity = "Springfield"
	c.CacheDBPath = "resq.db"
	c.RefreshInterval = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment (including a .env file if present), a JSON file
// (if given via -c/-config), and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
