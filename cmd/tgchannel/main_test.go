package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSendAndFailures(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "/botbad/") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":9}}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
telegram:
  token: "good"
logging:
  level: error
storage:
  driver: file
  path: `+filepath.Join(dir, "tg")+`
`), 0o600))
	t.Setenv("TGCHANNEL_TELEGRAM_API_URL", srv.URL)

	out, err := execute(t, "send", "-c", cfg, "--to", "42", "hello", "world")
	require.NoError(t, err)
	assert.Contains(t, out, `"message_id": 9`)

	_, err = execute(t, "send", "-c", cfg, "--to", "42", "--token", "bad", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
	assert.Equal(t, []string{"/botgood/sendMessage", "/botbad/sendMessage"}, paths)

	out, err = execute(t, "failures", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "sendMessage")
	assert.Contains(t, out, "Unauthorized")
}

func TestSendWithoutDestination(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"telegram":{"token":"x","api_url":"http://127.0.0.1:1"},"logging":{"level":"error"}}`), 0o600))

	out, err := execute(t, "send", "-c", cfg, "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing sent")
}
