// Package llmutils provides helpers for tool arguments and results
// exchanged with LLM agents.
package llmutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// CleanJSON trims text around the outermost JSON object or array,
// as agents may pass arguments like `Sure: {"query": "x"}`.
// Input without braces or brackets is returned as is.
func CleanJSON(bs []byte) []byte {
	start := bytes.IndexAny(bs, "{[")
	if start < 0 {
		return bs
	}
	bs = bs[start:]
	if end := bytes.LastIndexAny(bs, "}]"); end >= 0 {
		bs = bs[:end+1]
	}
	return bs
}

// DecodeArgs decodes tool call arguments into a map.
// Empty or blank input yields an empty map.
func DecodeArgs(input string) (map[string]any, error) {
	args := map[string]any{}
	cleaned := bytes.TrimSpace(CleanJSON([]byte(input)))
	if len(cleaned) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(cleaned, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// ToJSON returns compact JSON, or empty string if val can't be encoded
func ToJSON(val any) string {
	js, _ := json.Marshal(val)
	return string(js)
}

// ToJSONIndent returns indented JSON
func ToJSONIndent(val any) string {
	js, _ := json.MarshalIndent(val, "", "\t")
	return string(js)
}

// BackticksJSON fences the JSON for a prompt
func BackticksJSON(js string) string {
	return "\n```json\n" + strings.TrimSpace(js) + "\n```\n"
}

// Stringify returns the tool result as text:
// strings are returned as is, Stringer values use String(), everything else is JSON.
func Stringify(s any) string {
	switch v := s.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
	}
	return ToJSON(s)
}
