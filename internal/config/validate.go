package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks fields that can be checked without other packages.
// Schedule specs are checked by the validator the app installs.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	for _, f := range durationFields(cfg) {
		if _, err := Duration(f.name, f.raw); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.Telegram.RatePerSec < 0 {
		errs = append(errs, errors.New("telegram.rate_per_sec must be >= 0"))
	}
	if cfg.Telegram.ChunkSize < 0 || cfg.Telegram.ChunkSize > 4096 {
		errs = append(errs, errors.New("telegram.chunk_size must be within 0..4096"))
	}
	if st := cfg.Storage; st != nil {
		switch strings.ToLower(strings.TrimSpace(st.Driver)) {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", st.Driver))
		}
	}
	seen := map[string]bool{}
	for i, s := range cfg.Schedules {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("schedules[%d].name is required", i))
		} else if seen[name] {
			errs = append(errs, fmt.Errorf("schedules[%d].name %q is duplicated", i, name))
		}
		seen[name] = true
		if strings.TrimSpace(s.Spec) == "" {
			errs = append(errs, fmt.Errorf("schedules[%d].spec is required", i))
		}
	}
	return errors.Join(errs...)
}
