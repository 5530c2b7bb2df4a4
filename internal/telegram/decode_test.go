package telegram

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponse(t *testing.T) {
	t.Parallel()

	t.Run("map passes through", func(t *testing.T) {
		in := map[string]any{"ok": true, "result": map[string]any{"message_id": 42}}
		out, err := DecodeResponse(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("http response", func(t *testing.T) {
		resp := &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(`{"ok":true}`))}
		out, err := DecodeResponse(resp)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"ok": true}, out)
	})

	t.Run("bytes keep numbers exact", func(t *testing.T) {
		out, err := DecodeResponse([]byte(`{"ok":true,"result":{"message_id":9007199254740993}}`))
		require.NoError(t, err)
		res := out["result"].(map[string]any)
		assert.Equal(t, json.Number("9007199254740993"), res["message_id"])
	})

	t.Run("nil", func(t *testing.T) {
		out, err := DecodeResponse(nil)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	bad := []any{
		[]byte(`not json`),
		"[1,2]",
		"null",
		`{"ok":true} {"ok":false}`,
		42,
	}
	for _, in := range bad {
		_, err := DecodeResponse(in)
		assert.ErrorIs(t, err, ErrDecodeFailed, "input %v", in)
		var de *DecodeError
		assert.ErrorAs(t, err, &de)
	}
}
