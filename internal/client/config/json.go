package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/nutrisync/internal/flagx"
	"github.com/dmitrijs2005/nutrisync/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer and zero values
// mean "not set", so a partial file only overrides what it names.
type JsonConfig struct {
	ServerBaseURL       string          `json:"server_base_url"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	SyncInterval        *timex.Duration `json:"sync_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	DatabasePath        string          `json:"database_path"`
	TokenFile           string          `json:"token_file"`
	OwnerID             string          `json:"owner_id"`
	LogLevel            string          `json:"log_level"`
	LogFile             string          `json:"log_file"`
	RetentionDays       *int            `json:"retention_days"`
	RetryBase           *timex.Duration `json:"retry_base"`
	RetryMax            *timex.Duration `json:"retry_max"`
	MaxRetries          *int            `json:"max_retries"`
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.ServerBaseURL, jc.ServerBaseURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.TokenFile, jc.TokenFile)
	setString(&cfg.OwnerID, jc.OwnerID)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFile, jc.LogFile)

	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SyncInterval != nil {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RetryBase != nil {
		cfg.RetryBase = jc.RetryBase.Duration
	}
	if jc.RetryMax != nil {
		cfg.RetryMax = jc.RetryMax.Duration
	}
	if jc.RetentionDays != nil {
		cfg.RetentionDays = *jc.RetentionDays
	}
	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
