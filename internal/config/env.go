package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces environment overrides, e.g. TGCHANNEL_TELEGRAM_TOKEN.
const EnvPrefix = "tgchannel"

// Env holds values that may come from the environment instead of the file.
// Keeping the bot token out of the config file is the main use.
type Env struct {
	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	TelegramAPIURL string `envconfig:"TELEGRAM_API_URL"`
	DefaultChatID  string `envconfig:"TELEGRAM_CHAT_ID"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
}

// ApplyEnv overlays non-empty environment values onto cfg.
func ApplyEnv(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	var e Env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return fmt.Errorf("loading env overrides: %w", err)
	}
	if v := strings.TrimSpace(e.TelegramToken); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(e.TelegramAPIURL); v != "" {
		cfg.Telegram.APIURL = v
	}
	if v := strings.TrimSpace(e.DefaultChatID); v != "" {
		cfg.Telegram.DefaultChatID = v
	}
	if v := strings.TrimSpace(e.LogLevel); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}
