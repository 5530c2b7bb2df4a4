package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "tgchannel/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		require.NoError(t, err)
		assert.Nil(t, st)
	}
	_, err := Open(Config{Driver: "redis"}, logx.Nop())
	assert.Error(t, err)
	_, err = Open(Config{Driver: "file"}, logx.Nop())
	assert.Error(t, err)
}

func TestStores(t *testing.T) {
	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			st, err := Open(Config{Driver: driver, Path: filepath.Join(t.TempDir(), "tg.db"), BusyTimeout: time.Second}, logx.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })

			base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			for i := 0; i < 5; i++ {
				require.NoError(t, st.AppendFailure(ctx, FailureRecord{
					At:      base.Add(time.Duration(i) * time.Minute),
					Channel: "telegram",
					ChatID:  fmt.Sprint(100 + i),
					Method:  "sendMessage",
					Request: `{"text":"hi"}`,
					Error:   "boom",
				}))
			}

			got, err := st.RecentFailures(ctx, 3)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "104", got[0].ChatID)
			assert.Equal(t, "102", got[2].ChatID)
			assert.NotEmpty(t, got[0].ID)
			assert.True(t, got[0].At.Equal(base.Add(4*time.Minute)))
			assert.Equal(t, "sendMessage", got[0].Method)
		})
	}
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "tg.json")}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.AppendFailure(context.Background(), FailureRecord{Channel: "telegram", Error: "a"}))
	f, err := os.OpenFile(filepath.Join(dir, "tg.failures.jsonl"), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, _ = f.WriteString("{not json\n")
	_ = f.Close()
	require.NoError(t, st.AppendFailure(context.Background(), FailureRecord{Channel: "telegram", Error: "b"}))

	got, err := st.RecentFailures(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Error)
}
