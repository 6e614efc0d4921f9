package mcpserver

import (
	"context"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medulla-kb/medulla/internal/logging"
	"github.com/medulla-kb/medulla/internal/service"
)

// Server is the Medulla RPC Server (§4.F): tools, resources with
// subscriptions, and a logging channel layered on the official MCP SDK.
type Server struct {
	svc    *service.Service
	sdk    *sdkmcp.Server
	subs   *subscriptions
	logger *logging.Logger
}

// New builds a Server around an already-opened workspace.
func New(svc *service.Service, logger *logging.Logger) *Server {
	impl := &sdkmcp.Implementation{Name: "medulla", Version: "0.1.0"}
	subs := newSubscriptions()
	sdk := sdkmcp.NewServer(impl, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		SubscribeHandler: func(_ context.Context, req *sdkmcp.SubscribeRequest) error {
			subs.subscribe(req.Params.URI)
			return nil
		},
		UnsubscribeHandler: func(_ context.Context, req *sdkmcp.UnsubscribeRequest) error {
			subs.unsubscribe(req.Params.URI)
			return nil
		},
	})

	s := &Server{svc: svc, sdk: sdk, subs: subs, logger: logger}
	s.registerTools()
	s.registerResources()
	logger.AddSink(func(level logging.Level, line string) {
		s.notifyLog(level, line)
	})
	return s
}

const serverInstructions = `Medulla is a project-scoped knowledge engine: decisions, tasks, notes,
prompts, components, and links, linked by typed relations and kept in a
CRDT document that merges cleanly across branches.

Typical flow:
1. entity_create / entity_list to see what already exists before adding more.
2. task_ready / task_next to pick up work; task_complete when done.
3. search_fulltext / search_semantic to find prior decisions and notes.
4. graph_relations / graph_path to understand how entities connect.
5. decision_supersede when a new decision replaces an old one (keeps history, doesn't delete it).
`

// RunStdio serves over stdio until the client disconnects or ctx is done.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.sdk.Run(ctx, &sdkmcp.StdioTransport{})
}

// HTTPHandler exposes the server over the streamable-HTTP transport, for
// callers that want to host Medulla as a long-lived network service
// instead of a per-session stdio subprocess.
func (s *Server) HTTPHandler() http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return s.sdk
	}, nil)
}

// notifyLog sends a resources/updated notification for "medulla://logs"
// to subscribed clients each time a line is logged. The notification
// carries only the URI: the level and text of the line are not delivered.
func (s *Server) notifyLog(level logging.Level, line string) {
	s.subs.notify(s.sdk, context.Background(), logURI)
	_ = level
	_ = line
}
