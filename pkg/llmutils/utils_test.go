package llmutils_test

import (
	"testing"

	"github.com/effective-security/toolhub/pkg/llmutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CleanJSON(t *testing.T) {
	llmOutput := "\n```json\n\n{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"
	clean := llmutils.CleanJSON([]byte(llmOutput))

	expected := "{\"city\": \"Paris\", \"country\": \"France\"}"
	assert.Equal(t, expected, string(clean))

	llmOutput = "Here you go:\n```json\n\n[{\"city\": \"Paris\", \"country\": \"France\"}]\n```\n\n"
	clean = llmutils.CleanJSON([]byte(llmOutput))

	expected = "[{\"city\": \"Paris\", \"country\": \"France\"}]"
	assert.Equal(t, expected, string(clean))

	assert.Equal(t, "no json", string(llmutils.CleanJSON([]byte("no json"))))
	assert.Equal(t, `{"a":1}`, string(llmutils.CleanJSON([]byte(`args {"a":1} done`))))
	assert.Equal(t, "{never closed", string(llmutils.CleanJSON([]byte("prefix {never closed"))))
}

func Test_DecodeArgs(t *testing.T) {
	args, err := llmutils.DecodeArgs("")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = llmutils.DecodeArgs("  ")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = llmutils.DecodeArgs(`Sure: {"x": 1, "name": "q"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": float64(1), "name": "q"}, args)

	_, err = llmutils.DecodeArgs(`{"x":`)
	assert.Error(t, err)
}

func Test_BackticksJSON(t *testing.T) {
	json := "{\"city\": \"Paris\", \"country\": \"France\"}"
	wrapped := llmutils.BackticksJSON(json)

	expected := "\n```json\n{\"city\": \"Paris\", \"country\": \"France\"}\n```\n"
	assert.Equal(t, expected, wrapped)
}

type named struct{ v string }

func (n named) String() string { return "named:" + n.v }

func Test_Stringify(t *testing.T) {
	assert.Equal(t, "text", llmutils.Stringify("text"))
	assert.Equal(t, "named:x", llmutils.Stringify(named{v: "x"}))
	assert.Equal(t, "raw", llmutils.Stringify([]byte("raw")))
	assert.Equal(t, `{"a":1}`, llmutils.Stringify(map[string]int{"a": 1}))
	assert.Equal(t, "4.5", llmutils.Stringify(4.5))
}
