package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

const sampleYAML = `
telegram:
  token: "123:abc"
  default_chat_id: "-100200"
  timeout: 5s
logging:
  level: debug
  console: true
schedules:
  - name: heartbeat
    spec: "@hourly"
    text: "still alive"
`

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", sampleYAML)
	m := NewManager(p)

	cfg, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "-100200", cfg.Telegram.DefaultChatID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.Len(t, cfg.Schedules, 1)
	assert.Equal(t, "heartbeat", cfg.Schedules[0].Name)
	assert.Same(t, cfg, m.Get())
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()

	_, err := NewManager(writeFile(t, dir, "a.yaml", "telegram:\n  tokn: x\n")).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tokn")

	_, err = NewManager(writeFile(t, dir, "b.json", `{"telegram":{"token":"x"}}{"x":1}`)).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing data")

	_, err = NewManager(writeFile(t, dir, "c.json", `{"telegram":{"token":"x"}}}`)).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing data")

	_, err = NewManager(writeFile(t, dir, "d.yaml", "telegram:\n  token: x\n---\nlogging:\n  level: debug\n")).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one yaml document")
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := NewManager(writeFile(t, t.TempDir(), "empty.yml", "# nothing yet\n")).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cfg.Telegram.Token)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TGCHANNEL_TELEGRAM_TOKEN", "env-token")
	t.Setenv("TGCHANNEL_TELEGRAM_API_URL", "http://127.0.0.1:9999")
	t.Setenv("TGCHANNEL_LOG_LEVEL", "warn")

	p := writeFile(t, t.TempDir(), "config.json", `{"telegram":{"token":"file-token"},"logging":{"level":"info"}}`)
	cfg, err := NewManager(p).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.Telegram.APIURL)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEmptyPathUsesEnvOnly(t *testing.T) {
	t.Setenv("TGCHANNEL_TELEGRAM_TOKEN", "only-env")
	cfg, err := NewManager("").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "only-env", cfg.Telegram.Token)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Timeout: "soon", ChunkSize: 5000},
		Storage:  &StorageConfig{Driver: "postgres"},
		Schedules: []ScheduleConfig{
			{Name: "a", Spec: "@daily"},
			{Name: "a"},
		},
	}
	err := Validate(cfg)
	require.Error(t, err)
	for _, want := range []string{"telegram.timeout", "chunk_size", "storage.driver", "duplicated", "schedules[1].spec"} {
		assert.Contains(t, err.Error(), want)
	}

	require.NoError(t, Validate(&Config{}))
}

func TestLoadRunsValidator(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.json", `{"telegram":{"token":"x"}}`)
	m := NewManager(p)
	m.SetValidator(func(context.Context, *Config) error { return assert.AnError })

	_, err := m.Load(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, m.Get())
}

func TestDurationOr(t *testing.T) {
	d, err := DurationOr("x", "", 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	d, err = DurationOr("x", "250ms", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	_, err = DurationOr("x", "-1s", time.Second)
	require.ErrorContains(t, err, "negative")

	_, err = DurationOr("http.read_timeout", "soon", time.Second)
	require.ErrorContains(t, err, "http.read_timeout")
}

func TestSummarizeChangeHidesToken(t *testing.T) {
	oldCfg := &Config{Telegram: TelegramConfig{Token: "old-secret"}}
	newCfg := &Config{
		Telegram:  TelegramConfig{Token: "new-secret"},
		Schedules: []ScheduleConfig{{Name: "a", Spec: "1m"}},
	}
	changed, attrs := SummarizeChange(oldCfg, newCfg)
	assert.Equal(t, []string{"telegram", "schedules"}, changed)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ev := logger.Info()
	for _, f := range attrs {
		f(ev)
	}
	ev.Msg("config reloaded")
	assert.Contains(t, buf.String(), `"telegram.token_changed":true`)
	assert.NotContains(t, buf.String(), "secret")

	changed, _ = SummarizeChange(newCfg, newCfg)
	assert.Empty(t, changed)
}

func TestWatchPublishesChanges(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.json", `{"telegram":{"token":"a"}}`)
	m := NewManager(p)
	_, err := m.Load(context.Background())
	require.NoError(t, err)

	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = m.Watch(ctx)
		close(done)
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "config.json", `{"telegram":{"token":"b"}}`)

	select {
	case cfg := <-ch:
		assert.Equal(t, "b", cfg.Telegram.Token)
	case <-time.After(5 * time.Second):
		t.Fatal("no config published")
	}

	cancel()
	<-done
}
