package remote

import (
	"context"
	"time"
)

// probeTimeout caps the connectivity check independent of the client's
// request timeout so a dead network fails fast.
const probeTimeout = 3 * time.Second

// PingProbe reports connectivity by pinging the remote store.
type PingProbe struct {
	client *Client
}

// NewPingProbe creates a probe backed by the given client.
func NewPingProbe(client *Client) *PingProbe {
	return &PingProbe{client: client}
}

// Online returns whether the remote store is currently reachable.
func (p *PingProbe) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return p.client.Ping(ctx) == nil
}
