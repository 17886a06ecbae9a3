package provider

import "context"

// Provider is the base interface all providers implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// DuplexStream provides bidirectional communication over a single connection.
type DuplexStream[I, O any] interface {
	// Send writes a value to the remote end.
	Send(I) error
	// Recv blocks for the next value. It returns io.EOF after an orderly close.
	Recv() (O, error)
	// Close terminates the stream. Calling it more than once is safe.
	Close() error
}

// Duplex represents a provider with bidirectional communication.
type Duplex[I, O any] interface {
	Provider
	Open(ctx context.Context) (DuplexStream[I, O], error)
}
