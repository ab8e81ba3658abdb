package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxToolBodyBytes bounds a tool call body.
const maxToolBodyBytes = 1 << 20

// errBodyNotObject is returned when a tool call body is valid JSON but not an
// object.
var errBodyNotObject = errors.New("request body must be a JSON object")

// parseToolArgs reads the request body as a JSON object of tool arguments.
// An empty body is an empty argument set.
func parseToolArgs(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxToolBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return map[string]any{}, nil
	}
	if body[0] != '{' {
		return nil, errBodyNotObject
	}

	var args map[string]any
	if err := json.Unmarshal(body, &args); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
