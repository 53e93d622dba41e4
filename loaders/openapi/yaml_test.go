package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_yamlToJSON(t *testing.T) {
	js, err := yamlToJSON([]byte(`
paths:
  /zoo:
    get: {operationId: zoo}
  /apes:
    post:
      operationId: apes
      deprecated: false
      x-rate: 1.5
      x-max: 10
      tags: [b, a]
      x-none: ~
defaults: &defaults
  limit: 5
copy: *defaults
`))
	require.NoError(t, err)
	assert.Equal(t,
		`{"paths":{"/zoo":{"get":{"operationId":"zoo"}},"/apes":{"post":{"operationId":"apes","deprecated":false,"x-rate":1.5,"x-max":10,"tags":["b","a"],"x-none":null}}},"defaults":{"limit":5},"copy":{"limit":5}}`,
		string(js))

	js, err = yamlToJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(js))

	_, err = yamlToJSON([]byte("a: [unclosed"))
	assert.Error(t, err)
}

func Test_parseDocument_Order(t *testing.T) {
	doc, err := parseDocument([]byte(`
paths:
  /z: {get: {}}
  /a: {get: {}, delete: {}}
`))
	require.NoError(t, err)

	var paths, methods []string
	for p := doc.Paths.Oldest(); p != nil; p = p.Next() {
		paths = append(paths, p.Key)
		for m := p.Value.Oldest(); m != nil; m = m.Next() {
			methods = append(methods, m.Key)
		}
	}
	assert.Equal(t, []string{"/z", "/a"}, paths)
	assert.Equal(t, []string{"get", "get", "delete"}, methods)
}

func Test_parseDocument_JSON(t *testing.T) {
	doc, err := parseDocument([]byte(` {"paths": {"/b": {"post": {}}, "/a": {"get": {}}}} `))
	require.NoError(t, err)

	var paths []string
	for p := doc.Paths.Oldest(); p != nil; p = p.Next() {
		paths = append(paths, p.Key)
	}
	assert.Equal(t, []string{"/b", "/a"}, paths)

	_, err = parseDocument([]byte(`{"paths": [1]}`))
	assert.ErrorContains(t, err, "failed to decode OpenAPI document")

	_, err = parseDocument([]byte("paths: [\n"))
	assert.ErrorContains(t, err, "failed to parse OpenAPI document")
}
