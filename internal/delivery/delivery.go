// Package delivery defines the contract every transport entry point of the
// application satisfies.
package delivery

import "context"

// Delivery is a long-running server that accepts external traffic.
type Delivery interface {
	// Serve blocks until the server stops or fails.
	Serve(ctx context.Context) error
}
