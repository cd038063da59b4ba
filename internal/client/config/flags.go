package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/flagx"
)

var knownFlags = []string{"-a", "-i", "-s", "-r", "-d", "-t", "-u", "-l", "-f", "-k"}

// parseFlags overlays cfg with the flags it owns. Intervals are given in
// whole seconds on the command line.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("nutrisync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the tracker API")
	check := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	sync := fs.Int("s", int(cfg.SyncInterval.Seconds()), "sync interval while online (in seconds)")
	timeout := fs.Int("r", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local cache database path")
	fs.StringVar(&cfg.TokenFile, "t", cfg.TokenFile, "bearer token file")
	fs.StringVar(&cfg.OwnerID, "u", cfg.OwnerID, "owner id override")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFile, "f", cfg.LogFile, "log file")
	fs.IntVar(&cfg.RetentionDays, "k", cfg.RetentionDays, "days to keep synced records")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	cfg.OnlineCheckInterval = time.Duration(*check) * time.Second
	cfg.SyncInterval = time.Duration(*sync) * time.Second
	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
