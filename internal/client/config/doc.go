// Package config loads runtime configuration for the ResQ client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, including a .env file when present
//     (RESQ_BACKEND_URL, RESQ_API_KEY, RESQ_APP_ORIGIN, RESQ_DEFAULT_CITY,
//     RESQ_CACHE_DB, RESQ_REFRESH_INTERVAL).
//  3. Optional JSON file selected via -c or -config.
//  4. Command-line flags (-u, -k, -o, -d, -i), which override everything.
//
// # JSON schema
//
// Intervals accept either strings like "30s" or integer nanoseconds:
//
//	{
//	  "backend_url": "https://resq.example.org",
//	  "api_key": "public-anon-key",
//	  "app_origin": "https://app.resq.example.org",
//	  "default_city": "Springfield",
//	  "cache_db_path": "resq.db",
//	  "refresh_interval": "30s"
//	}
package config
