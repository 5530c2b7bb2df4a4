package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DecodeResponse turns a transport result into a JSON object.
//
// Maps pass through unchanged. HTTP responses, byte slices, strings and
// readers are parsed; numbers are kept as json.Number so chat and message ids
// survive intact. A nil result decodes to a nil map.
func DecodeResponse(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	case *http.Response:
		if v == nil || v.Body == nil {
			return nil, &DecodeError{Err: fmt.Errorf("empty http response")}
		}
		defer v.Body.Close()
		return decodeJSON(v.Body)
	case []byte:
		return decodeJSON(bytes.NewReader(v))
	case json.RawMessage:
		return decodeJSON(bytes.NewReader(v))
	case string:
		return decodeJSON(bytes.NewReader([]byte(v)))
	case io.Reader:
		return decodeJSON(v)
	default:
		return nil, &DecodeError{Err: fmt.Errorf("unsupported response type %T", raw)}
	}
}

func decodeJSON(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if out == nil {
		return nil, &DecodeError{Err: fmt.Errorf("response body is not a JSON object")}
	}
	// reject trailing tokens
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("trailing data after JSON object")
		}
		return nil, &DecodeError{Err: err}
	}
	return out, nil
}
