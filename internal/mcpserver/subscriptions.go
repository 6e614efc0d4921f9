package mcpserver

import (
	"context"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// logURI is the resource clients subscribe to in order to be notified
// each time the server logs a line (§4.F).
const logURI = "medulla://logs"

// subscriptions tracks which resource URIs have at least one interested
// client. Tool handlers call notify for the URIs a mutation touched after
// the service call has returned, so no document mutex is held while it
// runs. notify sends the URI through the SDK's ResourceUpdated; clients
// re-read the resource to get the new data, no payload is pushed.
type subscriptions struct {
	mu      sync.Mutex
	watched map[string]int
}

func newSubscriptions() *subscriptions {
	return &subscriptions{watched: make(map[string]int)}
}

func (s *subscriptions) subscribe(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watched[uri]++
}

func (s *subscriptions) unsubscribe(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watched[uri] > 0 {
		s.watched[uri]--
	}
}

func (s *subscriptions) isWatched(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watched[uri] > 0
}

// notify tells the SDK a resource changed so it can push
// notifications/resources/updated to subscribed sessions. It is a no-op
// if nobody has subscribed to uri, matching the resources/subscribe
// contract (§4.F) where updates are opt-in per URI.
func (s *subscriptions) notify(server *sdkmcp.Server, ctx context.Context, uri string) {
	if !s.isWatched(uri) {
		return
	}
	server.ResourceUpdated(ctx, &sdkmcp.ResourceUpdatedNotificationParams{URI: uri})
}

