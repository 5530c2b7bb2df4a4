package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration parses the Go duration stored in the named field. Empty is zero;
// negative values are rejected.
func Duration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: %w", field, err)
	case d < 0:
		return 0, fmt.Errorf("%s: %q is negative", field, raw)
	}
	return d, nil
}

// DurationOr is Duration with def standing in for an unset or zero value.
func DurationOr(field, raw string, def time.Duration) (time.Duration, error) {
	d, err := Duration(field, raw)
	if err != nil || d > 0 {
		return d, err
	}
	return def, nil
}

type durationField struct{ name, raw string }

// durationFields lists every duration-valued setting present in cfg.
func durationFields(cfg *Config) []durationField {
	out := []durationField{{"telegram.timeout", cfg.Telegram.Timeout}}
	if st := cfg.Storage; st != nil {
		out = append(out, durationField{"storage.busy_timeout", st.BusyTimeout})
	}
	if h := cfg.HTTP; h != nil {
		out = append(out,
			durationField{"http.read_timeout", h.ReadTimeout},
			durationField{"http.write_timeout", h.WriteTimeout},
		)
	}
	return out
}
