package config

import (
	"flag"
	"os"
	"time"

	"github.com/a2ztrade/storekit/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the storefront backend
//	-l string   default language query parameter value
//	-d string   path to the local credential cache database
//	-i int      monitor interval in seconds
//
// Args are filtered through flagx.FilterArgs so flags owned by other
// components do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-l", "-d", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "base URL of the storefront backend")
	fs.StringVar(&cfg.Language, "l", cfg.Language, "default language for backend responses")
	fs.StringVar(&cfg.CredentialsDSN, "d", cfg.CredentialsDSN, "path to local credential cache")
	monitorInterval := fs.Int("i", int(cfg.MonitorInterval.Seconds()), "token monitor interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.MonitorInterval = time.Duration(*monitorInterval) * time.Second
}
