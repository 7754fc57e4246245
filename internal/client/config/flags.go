package config

import (
	"flag"
	"os"
	"time"

	"github.com/resqlink/resq-go/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-u string   backend base URL
//	-k string   backend API key
//	-o string   application origin for email redirects
//	-d string   local cache database path
//	-i int      token refresh check interval (seconds)
//
// The function filters os.Args to only the flags it knows about, using
// flagx.FilterArgs, so it does not interfere with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-k", "-o", "-d", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "u", cfg.BackendURL, "backend base URL")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "backend API key")
	fs.StringVar(&cfg.AppOrigin, "o", cfg.AppOrigin, "application origin for email redirects")
	fs.StringVar(&cfg.CacheDBPath, "d", cfg.CacheDBPath, "local cache database path")
	refreshSecs := fs.Int("i", int(cfg.RefreshInterval.Seconds()), "token refresh check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RefreshInterval = time.Duration(*refreshSecs) * time.Second
}
