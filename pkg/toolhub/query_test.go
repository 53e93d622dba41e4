package toolhub_test

import (
	"testing"

	"github.com/effective-security/toolhub/pkg/toolhub"
	"github.com/stretchr/testify/assert"
)

type message struct {
	Role    string
	Content string
}

type getter struct{}

func (getter) GetContent() string { return "from getter" }

type unexported struct {
	content string
}

func Test_NormalizeQuery(t *testing.T) {
	tcases := []struct {
		name  string
		query any
		exp   string
	}{
		{name: "string", query: "hello", exp: "hello"},
		{name: "empty string", query: "", exp: ""},
		{name: "query key", query: map[string]any{"query": "q"}, exp: "q"},
		{name: "key priority", query: map[string]any{"content": "c", "prompt": "p", "text": "t"}, exp: "t"},
		{name: "blank skipped", query: map[string]any{"query": "  ", "prompt": "p"}, exp: "p"},
		{name: "non-string skipped", query: map[string]any{"query": 1, "content": "c"}, exp: "c"},
		{name: "string map", query: map[string]string{"prompt": "p"}, exp: "p"},
		{name: "messages", query: map[string]any{"messages": []any{map[string]any{"content": "q5"}}}, exp: "q5"},
		{name: "last message", query: map[string]any{"messages": []map[string]any{
			{"content": "first"},
			{"content": "last"},
		}}, exp: "last"},
		{name: "keys before messages", query: map[string]any{
			"text":     "t",
			"messages": []any{map[string]any{"content": "m"}},
		}, exp: "t"},
		{name: "blank last message", query: map[string]any{"messages": []any{map[string]any{"content": " "}}},
			exp: "map[messages:[map[content: ]]]"},
		{name: "empty messages", query: map[string]any{"messages": []any{}}, exp: "map[messages:[]]"},
		{name: "struct content", query: message{Role: "user", Content: "q6"}, exp: "q6"},
		{name: "pointer content", query: &message{Content: "q7"}, exp: "q7"},
		{name: "getter", query: getter{}, exp: "from getter"},
		{name: "unexported", query: unexported{content: "x"}, exp: "{x}"},
		{name: "int", query: 123, exp: "123"},
		{name: "nil", query: nil, exp: "<nil>"},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, toolhub.NormalizeQuery(tc.query))
		})
	}
}
