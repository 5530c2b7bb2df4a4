package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"tgchannel/internal/channel"
	"tgchannel/internal/config"
	logx "tgchannel/pkg/logx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	to channel.Notifiable
	n  channel.Notification
}

type recorder struct {
	mu   sync.Mutex
	sent []sent
	hit  chan struct{}
}

func newRecorder() *recorder { return &recorder{hit: make(chan struct{}, 16)} }

func (r *recorder) Send(_ context.Context, to channel.Notifiable, n channel.Notification) (map[string]any, error) {
	r.mu.Lock()
	r.sent = append(r.sent, sent{to: to, n: n})
	r.mu.Unlock()
	select {
	case r.hit <- struct{}{}:
	default:
	}
	return map[string]any{"ok": true}, nil
}

func TestJobsFromConfig(t *testing.T) {
	jobs, err := JobsFromConfig([]config.ScheduleConfig{
		{Name: "a", Spec: "*/5 * * * *", Text: "five"},
		{Name: "b", Spec: "02:30", Text: "later", ChatID: "@ops", ParseMode: "html"},
		{Name: "c", Spec: "1m", Disabled: true},
	}, "-100", 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "-100", jobs[0].Notice.ChatID)
	assert.Equal(t, "*/5 * * * *", jobs[0].Spec.CronSpec())
	assert.Equal(t, "@ops", jobs[1].Notice.ChatID)
	assert.Equal(t, "@every 2h30m0s", jobs[1].Spec.CronSpec())
}

func TestJobsFromConfigErrors(t *testing.T) {
	_, err := JobsFromConfig([]config.ScheduleConfig{
		{Name: "bad-cron", Spec: "99 * * * *"},
		{Name: "bad", Spec: "whenever"},
		{Name: "no-chat", Spec: "1h"},
	}, "", 0)
	require.Error(t, err)
	for _, want := range []string{"bad-cron", `"bad"`, "no-chat"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := &config.Config{
		Telegram:  config.TelegramConfig{DefaultChatID: "1"},
		Schedules: []config.ScheduleConfig{{Name: "a", Spec: "@daily", Text: "x"}},
	}
	require.NoError(t, Validate(cfg))
	cfg.Schedules[0].Spec = "cron:"
	require.Error(t, Validate(cfg))
}

func TestRunNowDispatchesNotice(t *testing.T) {
	rec := newRecorder()
	s := New(rec, logx.Nop())
	jobs, err := JobsFromConfig([]config.ScheduleConfig{
		{Name: "ping", Spec: "@hourly", Text: "pong", Silent: true},
	}, "42", 0)
	require.NoError(t, err)
	require.NoError(t, s.Apply(jobs))
	assert.Equal(t, []string{"ping"}, s.Names())

	require.NoError(t, s.RunNow(context.Background(), "ping"))
	require.Len(t, rec.sent, 1)
	assert.Equal(t, "42", rec.sent[0].to.RouteFor(channel.Name, nil))
	notice, ok := rec.sent[0].n.(channel.Notice)
	require.True(t, ok)
	assert.Equal(t, "pong", notice.Text)
	assert.True(t, notice.Silent)

	require.Error(t, s.RunNow(context.Background(), "missing"))
}

func TestStartFiresIntervalJobs(t *testing.T) {
	rec := newRecorder()
	s := New(rec, logx.Nop())
	require.NoError(t, s.Apply([]Job{{
		Name:   "tick",
		Spec:   ParsedSpec{Kind: SpecInterval, Every: time.Second, Source: "duration"},
		Notice: channel.Notice{Text: "tick", ChatID: "1"},
	}}))
	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-rec.hit:
	case <-time.After(5 * time.Second):
		t.Fatal("interval job never fired")
	}
}

func TestApplyReplacesSet(t *testing.T) {
	s := New(newRecorder(), logx.Nop())
	s.Start()
	defer s.Stop(context.Background())

	every := ParsedSpec{Kind: SpecInterval, Every: time.Hour}
	require.NoError(t, s.Apply([]Job{{Name: "a", Spec: every}, {Name: "b", Spec: every}}))
	require.NoError(t, s.Apply([]Job{{Name: "c", Spec: every}}))
	assert.Equal(t, []string{"c"}, s.Names())

	s.mu.Lock()
	assert.Len(t, s.entries, 1)
	assert.Len(t, s.c.Entries(), 1)
	s.mu.Unlock()

	err := s.Apply([]Job{{Name: "x", Spec: ParsedSpec{Kind: SpecCron, Cron: "nope"}}})
	require.Error(t, err)
	assert.Equal(t, []string{"c"}, s.Names())
}
