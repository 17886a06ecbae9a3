package stream

import (
	"context"

	"github.com/amobagan/nutristream/provider"
)

// Conn is one open connection to the analysis endpoint. Recv returns a
// MALFORMED_MESSAGE error for a frame that cannot be decoded and stays
// usable afterwards; any other error ends the connection.
type Conn = provider.DuplexStream[Request, Message]

// Dialer opens connections authenticated with credential.
type Dialer interface {
	Dial(ctx context.Context, credential string) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, credential string) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, credential string) (Conn, error) {
	return f(ctx, credential)
}
