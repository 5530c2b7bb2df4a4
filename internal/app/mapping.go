package app

import (
	"fmt"
	"strings"
	"time"

	"tgchannel/internal/config"
	"tgchannel/internal/httpapi"
	"tgchannel/internal/storage"
	"tgchannel/internal/telegram"
	logx "tgchannel/pkg/logx"
)

func logConfig(cfg *config.Config) logx.Config {
	lc := cfg.Logging
	return logx.Config{
		Level:   lc.Level,
		Console: lc.Console,
		File: logx.FileConfig{
			Enabled:    lc.File.Enabled,
			Path:       lc.File.Path,
			MaxSizeMB:  lc.File.MaxSizeMB,
			MaxBackups: lc.File.MaxBackups,
			MaxAgeDays: lc.File.MaxAgeDays,
			Compress:   lc.File.Compress,
		},
	}
}

func mapClientConfig(cfg *config.Config) (telegram.ClientConfig, error) {
	tc := cfg.Telegram
	timeout, err := config.DurationOr("telegram.timeout", tc.Timeout, defaultTimeout)
	if err != nil {
		return telegram.ClientConfig{}, err
	}
	rate := tc.RatePerSec
	if rate == 0 {
		rate = defaultRatePerSec
	}
	return telegram.ClientConfig{
		Token:      strings.TrimSpace(tc.Token),
		APIURL:     strings.TrimSpace(tc.APIURL),
		Timeout:    timeout,
		RatePerSec: rate,
	}, nil
}

func apiOptions(cfg *config.Config) httpapi.Options {
	opts := httpapi.Options{
		DefaultChatID: strings.TrimSpace(cfg.Telegram.DefaultChatID),
		ChunkSize:     cfg.Telegram.ChunkSize,
	}
	if cfg.HTTP != nil {
		opts.Token = cfg.HTTP.Token
		opts.Pprof = cfg.HTTP.Pprof
	}
	return opts
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)
	if path == "" {
		return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=%s", driver)
	}

	switch driver {
	case "file":
		return storage.Config{Driver: driver, Path: path}, true, nil
	case "sqlite", "sqlite3":
		busy, err := config.DurationOr("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}
