// Package delivery defines the contract for inbound transports.
package delivery

import "context"

// Delivery is a long-running inbound server, e.g. the HTTP API.
// Implementations block in Serve until the server stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
