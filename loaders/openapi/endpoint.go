package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/pkg/llmutils"
	"github.com/effective-security/toolhub/pkg/schema"
	"github.com/effective-security/toolhub/tools"
	"github.com/tidwall/sjson"
)

// maxResponseSize limits the size of endpoint responses
const maxResponseSize = 4 << 20

// Input is the argument of an endpoint tool
type Input struct {
	PathParams map[string]any `json:"path_params,omitempty"`
	Query      map[string]any `json:"query,omitempty"`
	JSON       any            `json:"json,omitempty"`
	Headers    map[string]any `json:"headers,omitempty"`
}

var inputParams = []schema.Param{
	{Name: "path_params", Type: schema.TypeObject, Description: "Values of templated path parameters"},
	{Name: "query", Type: schema.TypeObject, Description: "Query string parameters"},
	{Name: "json", Type: schema.TypeObject, Description: "JSON request body"},
	{Name: "headers", Type: schema.TypeObject, Description: "Request headers"},
}

var inputSchema = schema.FromParams(inputParams)

// Endpoint is a tool calling one operation of an HTTP API
type Endpoint struct {
	name         string
	description  string
	method       string
	baseURL      string
	pathTemplate string
	timeout      time.Duration
	httpClient   *http.Client
}

var _ tools.ITool = (*Endpoint)(nil)

func (e *Endpoint) Name() string {
	return e.name
}

func (e *Endpoint) Description() string {
	return e.description
}

func (e *Endpoint) Parameters() any {
	return inputSchema
}

// Method returns the HTTP method
func (e *Endpoint) Method() string {
	return e.method
}

// Path returns the path template
func (e *Endpoint) Path() string {
	return e.pathTemplate
}

// BuildURL returns the URL with path parameters substituted,
// joining the base URL and the path with a single slash.
func (e *Endpoint) BuildURL(pathParams map[string]any) string {
	path := e.pathTemplate
	for key, val := range pathParams {
		path = strings.ReplaceAll(path, "{"+key+"}", url.PathEscape(fmt.Sprint(val)))
	}

	base := e.baseURL
	switch {
	case strings.HasSuffix(base, "/") && strings.HasPrefix(path, "/"):
		return base[:len(base)-1] + path
	case !strings.HasSuffix(base, "/") && !strings.HasPrefix(path, "/"):
		return base + "/" + path
	}
	return base + path
}

// Call invokes the endpoint.
// Transport failures return {"error", "method", "url"},
// non-2xx or non-JSON responses return {"status", "text", "url"}.
func (e *Endpoint) Call(ctx context.Context, input string) (string, error) {
	var in Input
	if cleaned := bytes.TrimSpace(llmutils.CleanJSON([]byte(input))); len(cleaned) > 0 {
		if err := json.Unmarshal(cleaned, &in); err != nil {
			return "", errors.Mark(errors.Wrap(err, "failed to unmarshal input"), tools.ErrFailedUnmarshalInput)
		}
	}

	target := e.BuildURL(in.PathParams)
	if len(in.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + encodeQuery(in.Query)
	}

	var body io.Reader
	if in.JSON != nil {
		js, err := json.Marshal(in.JSON)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal request body")
		}
		body = bytes.NewReader(js)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, e.method, target, body)
	if err != nil {
		return e.transportError(err, target), nil
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range in.Headers {
		req.Header.Set(k, fmt.Sprint(v))
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return e.transportError(err, target), nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return e.transportError(err, target), nil
	}

	trimmed := bytes.TrimSpace(raw)
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 && len(trimmed) > 0 && json.Valid(trimmed) {
		return string(trimmed), nil
	}

	res, _ := sjson.Set("", "status", resp.StatusCode)
	res, _ = sjson.Set(res, "text", string(raw))
	res, _ = sjson.Set(res, "url", target)
	return res, nil
}

func (e *Endpoint) transportError(err error, target string) string {
	res, _ := sjson.Set("", "error", err.Error())
	res, _ = sjson.Set(res, "method", e.method)
	res, _ = sjson.Set(res, "url", target)
	return res
}

// encodeQuery encodes values sorted by key, lists become repeated keys
func encodeQuery(query map[string]any) string {
	vals := url.Values{}
	for k, val := range query {
		switch v := val.(type) {
		case []any:
			for _, item := range v {
				vals.Add(k, fmt.Sprint(item))
			}
		case nil:
			vals.Add(k, "")
		default:
			vals.Add(k, fmt.Sprint(v))
		}
	}
	return vals.Encode()
}
