// Package delivery defines the contract every inbound adapter (HTTP server, background worker) fulfils.
package delivery

import "context"

// Delivery is a long-running inbound adapter started by the composition root.
type Delivery interface {
	Serve(ctx context.Context) error
}
