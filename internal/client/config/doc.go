// Package config loads runtime configuration for the nutrisync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the tracker API
//	-i int      online check interval (seconds)
//	-s int      periodic sync interval while online (seconds)
//	-r int      per-request timeout (seconds)
//	-d string   path to the local SQLite cache
//	-t string   file holding the bearer token
//	-u string   owner id override (when no token is available)
//	-l string   log level: debug, info, warn, error
//	-f string   log file (rotated); stderr when empty
//	-k int      days to keep synced records locally (0 keeps everything)
//
// # JSON schema
//
// Durations use timex.Duration, so they accept "3s" style strings or integer
// nanoseconds:
//
//	{
//	  "server_base_url": "https://tracker.example.com",
//	  "online_check_interval": "3s",
//	  "sync_interval": "15m",
//	  "request_timeout": "10s",
//	  "database_path": "nutrisync.db",
//	  "token_file": "token.jwt",
//	  "log_level": "debug",
//	  "retention_days": 90,
//	  "retry_base": "2s",
//	  "retry_max": "1m",
//	  "max_retries": 5
//	}
package config
