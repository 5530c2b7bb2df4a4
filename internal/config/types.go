package config

// Config is the on-disk configuration (JSON or YAML).
//
// Unknown fields are rejected so typos surface on load and on reload.
type Config struct {
	Telegram  TelegramConfig   `json:"telegram"`
	Logging   LoggingConfig    `json:"logging"`
	Storage   *StorageConfig   `json:"storage,omitempty"`
	HTTP      *HTTPConfig      `json:"http,omitempty"`
	Schedules []ScheduleConfig `json:"schedules,omitempty"`
}

// TelegramConfig configures the Bot API client.
//
// All durations are Go duration strings (e.g. "500ms", "10s").
//
// Defaults:
//   - api_url: https://api.telegram.org
//   - timeout: "10s"
//   - rate_per_sec: 25 (Bot API allows ~30 msg/s per bot)
type TelegramConfig struct {
	Token  string `json:"token"`
	APIURL string `json:"api_url,omitempty"`
	// DefaultChatID is used by the CLI/API when no chat is given.
	DefaultChatID string `json:"default_chat_id,omitempty"`
	Timeout       string `json:"timeout,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	// ChunkSize splits long texts into several messages. 0 disables.
	ChunkSize int `json:"chunk_size,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
	Compress   bool   `json:"compress,omitempty"`
}

// StorageConfig controls the failure log.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/tgchannel.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// HTTPConfig controls the serve-mode HTTP API.
//
// Security note: prefer binding to localhost, or set a bearer token.
type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`  // default: "127.0.0.1:8087"
	Token   string `json:"token,omitempty"` // optional bearer token (do not log)
	// Pprof mounts net/http/pprof under /debug, behind the bearer token.
	Pprof bool `json:"pprof,omitempty"`

	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
}

// ScheduleConfig is a notice sent on a schedule while serving.
//
// Spec accepts cron ("*/5 * * * *", "@hourly"), a Go duration ("55m") or
// HH:MM ("02:30" = every 2h30m).
type ScheduleConfig struct {
	Name      string `json:"name"`
	Spec      string `json:"spec"`
	ChatID    string `json:"chat_id,omitempty"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
	Token     string `json:"token,omitempty"`
	Silent    bool   `json:"silent,omitempty"`
	Disabled  bool   `json:"disabled,omitempty"`
}
