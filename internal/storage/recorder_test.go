package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgchannel/internal/channel"
	"tgchannel/internal/eventbus"
	"tgchannel/internal/telegram"
	logx "tgchannel/pkg/logx"
)

func failedEvent() channel.NotificationFailed {
	return channel.NotificationFailed{
		Channel: channel.Name,
		Data: channel.FailureContext{
			To:      "-100",
			Request: map[string]any{"chat_id": "-100", "text": "hi"},
			Err:     &telegram.SendError{Method: "sendMessage", Err: errors.New("chat not found")},
		},
	}
}

func TestFailureRecordOf(t *testing.T) {
	rec := FailureRecordOf(failedEvent())
	assert.Equal(t, "telegram", rec.Channel)
	assert.Equal(t, "-100", rec.ChatID)
	assert.Equal(t, "sendMessage", rec.Method)
	assert.Contains(t, rec.Error, "chat not found")
	assert.JSONEq(t, `{"chat_id":"-100","text":"hi"}`, rec.Request)

	empty := FailureRecordOf(channel.NotificationFailed{Channel: "telegram"})
	assert.Empty(t, empty.ChatID)
	assert.Empty(t, empty.Method)
	assert.Empty(t, empty.Request)
}

func TestRecorderPersistsBusEvents(t *testing.T) {
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "tg")}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	bus := eventbus.New()
	rec := NewRecorder(st, bus, logx.Nop())
	defer rec.Close()
	var stored atomic.Int32
	rec.OnStored(func() { stored.Add(1) })

	// Published before Run starts; the subscription already buffers it.
	channel.NewBusReporter(bus).Report(context.Background(), failedEvent())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = rec.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return stored.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	got, err := st.RecentFailures(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sendMessage", got[0].Method)
	assert.NotEmpty(t, got[0].ID)
}

func TestRecorderDrainsOnShutdown(t *testing.T) {
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "tg")}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	bus := eventbus.New()
	rec := NewRecorder(st, bus, logx.Nop())
	defer rec.Close()
	channel.NewBusReporter(bus).Report(context.Background(), failedEvent())
	channel.NewBusReporter(bus).Report(context.Background(), failedEvent())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, rec.Run(ctx))

	got, err := st.RecentFailures(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRecorderWithoutStoreWaits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, NewRecorder(nil, eventbus.New(), logx.Nop()).Run(ctx))
}
