// Package openapi loads one tool per operation of an OpenAPI document.
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
	"github.com/effective-security/toolhub/pkg/naming"
	"github.com/effective-security/toolhub/pkg/toolhub"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolhub", "openapi")

// DefaultTimeout is used to fetch the document and to call endpoints
const DefaultTimeout = 30 * time.Second

// maxDocumentSize limits the size of fetched documents
const maxDocumentSize = 16 << 20

var methods = map[string]bool{
	"get":     true,
	"post":    true,
	"put":     true,
	"delete":  true,
	"patch":   true,
	"head":    true,
	"options": true,
}

type document struct {
	Servers []struct {
		URL string `json:"url"`
	} `json:"servers"`
	Paths *orderedmap.OrderedMap[string, *orderedmap.OrderedMap[string, json.RawMessage]] `json:"paths"`
}

type operation struct {
	OperationID string `json:"operationId"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

// Option configures the Loader
type Option func(*Loader)

// WithTimeout sets the timeout of the document fetch and endpoint calls
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		l.httpClient = client
	}
}

// Loader loads endpoint tools from an OpenAPI document
type Loader struct {
	specURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// New returns loader for the document at specURL
func New(specURL string, opts ...Option) *Loader {
	l := &Loader{
		specURL:    specURL,
		timeout:    DefaultTimeout,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the document, and returns one tool per operation,
// in the document order.
func (l *Loader) Load(ctx context.Context) ([]toolhub.LoadedTool, error) {
	doc, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}

	baseURL := l.baseURL(doc)
	var loaded []toolhub.LoadedTool
	var used naming.Set

	if doc.Paths == nil {
		return loaded, nil
	}

	for pair := doc.Paths.Oldest(); pair != nil; pair = pair.Next() {
		path, item := pair.Key, pair.Value
		if item == nil {
			continue
		}
		for op := item.Oldest(); op != nil; op = op.Next() {
			method := strings.ToLower(op.Key)
			if !methods[method] {
				continue
			}

			var o operation
			if len(op.Value) > 0 && string(op.Value) != "null" {
				if err := json.Unmarshal(op.Value, &o); err != nil {
					return nil, errors.Wrapf(err, "invalid operation %s %s", method, path)
				}
			}

			name := used.Unique(naming.Sanitize(values.StringsCoalesce(o.OperationID, method+"_"+path)))
			description := values.StringsCoalesce(o.Summary, o.Description, strings.ToUpper(method)+" "+path)

			t := &Endpoint{
				name:         name,
				description:  description,
				method:       strings.ToUpper(method),
				baseURL:      baseURL,
				pathTemplate: path,
				timeout:      l.timeout,
				httpClient:   l.httpClient,
			}
			loaded = append(loaded, toolhub.LoadedTool{
				Name:        name,
				Description: description,
				Tool:        t,
				Source:      toolhub.SourceOpenAPI,
				Origin:      l.specURL,
			})
		}
	}

	logger.KV(xlog.DEBUG, "spec", l.specURL, "base_url", baseURL, "tools", len(loaded))
	return loaded, nil
}

func (l *Loader) fetch(ctx context.Context) (*document, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.specURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid OpenAPI URL %s", l.specURL)
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch OpenAPI document %s", l.specURL)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("failed to fetch OpenAPI document %s: status %d", l.specURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read OpenAPI document %s", l.specURL)
	}
	return parseDocument(body)
}

// parseDocument accepts JSON or YAML, the path order of the document is kept
func parseDocument(body []byte) (*document, error) {
	var err error
	js := bytes.TrimSpace(body)
	if !json.Valid(js) {
		if js, err = yamlToJSON(body); err != nil {
			return nil, errors.Wrap(err, "failed to parse OpenAPI document")
		}
	}
	doc := new(document)
	if err = json.Unmarshal(js, doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode OpenAPI document")
	}
	return doc, nil
}

// baseURL returns the first server URL, resolved against the document URL,
// or the scheme and host of the document URL.
func (l *Loader) baseURL(doc *document) string {
	specURL, err := url.Parse(l.specURL)
	if err != nil {
		specURL = nil
	}

	if len(doc.Servers) > 0 && doc.Servers[0].URL != "" {
		server := doc.Servers[0].URL
		if su, err := url.Parse(server); err == nil && !su.IsAbs() && specURL != nil && specURL.Host != "" {
			return specURL.ResolveReference(su).String()
		}
		return server
	}

	if specURL != nil && specURL.Scheme != "" && specURL.Host != "" {
		return fmt.Sprintf("%s://%s", specURL.Scheme, specURL.Host)
	}
	return ""
}
