package toolhub

import (
	"fmt"
	"reflect"
	"strings"
)

var queryKeys = []string{"query", "text", "prompt", "content"}

// NormalizeQuery returns plain text of a query given as
// a string, a task payload map, a chat payload with messages,
// or a value with content.
// Anything else is formatted with fmt.Sprint.
func NormalizeQuery(query any) string {
	switch q := query.(type) {
	case string:
		return q
	case map[string]string:
		for _, key := range queryKeys {
			if s := q[key]; strings.TrimSpace(s) != "" {
				return s
			}
		}
		return fmt.Sprint(query)
	case map[string]any:
		for _, key := range queryKeys {
			if s, ok := q[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
		if s, ok := lastMessageContent(q["messages"]); ok {
			return s
		}
		return fmt.Sprint(query)
	}

	if s, ok := contentOf(query); ok {
		return s
	}
	return fmt.Sprint(query)
}

func lastMessageContent(messages any) (string, bool) {
	if messages == nil {
		return "", false
	}
	v := reflect.ValueOf(messages)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return "", false
	}
	if v.Len() == 0 {
		return "", false
	}
	last := v.Index(v.Len() - 1).Interface()
	switch m := last.(type) {
	case map[string]any:
		if s, ok := m["content"].(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	case map[string]string:
		if s := m["content"]; strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

type contentGetter interface {
	GetContent() string
}

// contentOf returns non-blank content of a value,
// from GetContent method or exported Content string field.
func contentOf(q any) (string, bool) {
	if g, ok := q.(contentGetter); ok {
		if s := g.GetContent(); strings.TrimSpace(s) != "" {
			return s, true
		}
		return "", false
	}

	v := reflect.ValueOf(q)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", false
	}
	f := v.FieldByName("Content")
	if !f.IsValid() || f.Kind() != reflect.String {
		return "", false
	}
	if s := f.String(); strings.TrimSpace(s) != "" {
		return s, true
	}
	return "", false
}
