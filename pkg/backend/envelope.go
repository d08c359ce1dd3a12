package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// envelope is the backend's response wrapper. statusCode arrives as a number
// or a string and message as a string or a list of strings.
type envelope struct {
	StatusCode json.RawMessage `json:"statusCode"`
	Message    json.RawMessage `json:"message"`
	Error      json.RawMessage `json:"error"`
	Result     json.RawMessage `json:"result"`
}

func (e envelope) hasResult() bool {
	trimmed := bytes.TrimSpace(e.Result)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// status prefers the envelope's statusCode and falls back to the HTTP status.
func (e envelope) status(httpStatus int) int {
	raw := strings.Trim(strings.TrimSpace(string(e.StatusCode)), `"`)
	if raw == "" || raw == "null" {
		return httpStatus
	}
	code, err := strconv.Atoi(raw)
	if err != nil {
		return httpStatus
	}
	return code
}

// text flattens message (or error when message is empty) into one line.
func (e envelope) text() string {
	if msg := flattenText(e.Message); msg != "" {
		return msg
	}
	return flattenText(e.Error)
}

func flattenText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var single string
	if err := json.Unmarshal(trimmed, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var many []string
	if err := json.Unmarshal(trimmed, &many); err == nil {
		parts := make([]string, 0, len(many))
		for _, m := range many {
			if m = strings.TrimSpace(m); m != "" {
				parts = append(parts, m)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
