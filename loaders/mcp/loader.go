package mcp

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/pkg/toolhub"
	"github.com/effective-security/xlog"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolhub", "mcp")

// DefaultTimeout is used to connect and list tools, and to call tools
const DefaultTimeout = 30 * time.Second

// DefaultDescription is used when a server tool has no description
const DefaultDescription = "MCP tool"

// TransportFactory returns the client transport for the named server
type TransportFactory func(serverName string, conn Connection) (sdk.Transport, error)

// Option configures the Loader
type Option func(*Loader)

// WithTimeout sets the connect and call timeout
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithTransportFactory overrides how transports are created
func WithTransportFactory(factory TransportFactory) Option {
	return func(l *Loader) {
		l.factory = factory
	}
}

// WithClientInfo sets the client implementation reported to servers
func WithClientInfo(name, version string) Option {
	return func(l *Loader) {
		l.impl = &sdk.Implementation{Name: name, Version: version}
	}
}

// Loader loads tools from MCP servers.
// The sessions stay open until Close is called.
type Loader struct {
	connections Connections
	timeout     time.Duration
	factory     TransportFactory
	impl        *sdk.Implementation

	lock     sync.Mutex
	sessions []*sdk.ClientSession
	cancels  []context.CancelFunc
}

// New returns loader for the connections
func New(connections Connections, opts ...Option) *Loader {
	l := &Loader{
		connections: connections,
		timeout:     DefaultTimeout,
		factory: func(_ string, conn Connection) (sdk.Transport, error) {
			return conn.NewTransport()
		},
		impl: &sdk.Implementation{Name: "toolhub", Version: "1.0.0"},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load connects to every server, in sorted order of names,
// and returns the wrapped tools.
// On failure the sessions opened so far are closed.
func (l *Loader) Load(ctx context.Context) ([]toolhub.LoadedTool, error) {
	var loaded []toolhub.LoadedTool
	for _, serverName := range l.connections.Names() {
		list, err := l.loadServer(ctx, serverName, l.connections[serverName])
		if err != nil {
			_ = l.Close()
			return nil, err
		}
		loaded = append(loaded, list...)
	}
	return loaded, nil
}

func (l *Loader) loadServer(ctx context.Context, serverName string, conn Connection) ([]toolhub.LoadedTool, error) {
	transport, err := l.factory(serverName, conn)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid MCP server %s", serverName)
	}

	// streams of the session are bound to connCtx, it must outlive Load;
	// only the handshake is bounded by the timeout and by ctx
	connCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	timer := time.AfterFunc(l.timeout, stop)
	unbind := context.AfterFunc(ctx, stop)

	client := sdk.NewClient(l.impl, nil)
	session, err := client.Connect(connCtx, transport, nil)
	timer.Stop()
	unbind()
	if err == nil {
		if cerr := errors.CombineErrors(ctx.Err(), connCtx.Err()); cerr != nil {
			_ = session.Close()
			err = errors.WithStack(cerr)
		}
	}
	if err != nil {
		stop()
		return nil, errors.Wrapf(err, "failed to connect to MCP server %s", serverName)
	}
	l.track(session, stop)

	listCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	remote, err := listTools(listCtx, session)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list tools of MCP server %s", serverName)
	}

	prefix := conn.ToolPrefix(serverName)
	loaded := make([]toolhub.LoadedTool, 0, len(remote))
	for _, rt := range remote {
		remoteName := rt.Name
		if remoteName == "" {
			remoteName = "tool"
		}
		name := remoteName
		if !strings.HasPrefix(name, prefix) {
			name = prefix + "_" + name
		}
		description := rt.Description
		if description == "" {
			description = DefaultDescription
		}

		t := &Tool{
			name:        name,
			description: description,
			remoteName:  rt.Name,
			inputSchema: rt.InputSchema,
			session:     session,
			timeout:     l.timeout,
		}
		loaded = append(loaded, toolhub.LoadedTool{
			Name:        name,
			Description: description,
			Tool:        t,
			Source:      toolhub.SourceMCP,
			Origin:      serverName,
		})
	}

	logger.KV(xlog.DEBUG, "server", serverName, "prefix", prefix, "tools", len(loaded))
	return loaded, nil
}

func listTools(ctx context.Context, session *sdk.ClientSession) ([]*sdk.Tool, error) {
	var list []*sdk.Tool
	cursor := ""
	for {
		res, err := session.ListTools(ctx, &sdk.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, errors.WithStack(err)
		}
		list = append(list, res.Tools...)
		if res.NextCursor == "" {
			return list, nil
		}
		cursor = res.NextCursor
	}
}

func (l *Loader) track(session *sdk.ClientSession, cancel context.CancelFunc) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.sessions = append(l.sessions, session)
	l.cancels = append(l.cancels, cancel)
}

// Close releases every session
func (l *Loader) Close() error {
	l.lock.Lock()
	sessions := l.sessions
	cancels := l.cancels
	l.sessions = nil
	l.cancels = nil
	l.lock.Unlock()

	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	var errs error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			logger.KV(xlog.DEBUG, "reason", "close", "err", err.Error())
			errs = errors.CombineErrors(errs, err)
		}
	}
	return errs
}
