package stream

import (
	"context"
	"fmt"

	"github.com/amobagan/nutristream/component"
)

// Endpointer is implemented by dialers that can name their target.
type Endpointer interface {
	Endpoint() string
}

// Component runs a Session under a component.Registry: Start opens the
// connection and Stop closes it and waits for the read loop.
type Component struct {
	session *Session
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps s for the component registry.
func NewComponent(s *Session) *Component {
	return &Component{session: s}
}

// Session returns the wrapped session.
func (c *Component) Session() *Session { return c.session }

// Name implements component.Component.
func (c *Component) Name() string { return "stream-session" }

// Start opens the session.
func (c *Component) Start(ctx context.Context) error {
	return c.session.Open(ctx)
}

// Stop closes the session and waits for its read loop until ctx is done.
func (c *Component) Stop(ctx context.Context) error {
	err := c.session.Close()
	select {
	case <-c.session.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// Health is healthy while the session is connected.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name()}
	switch st := c.session.ConnectionState(); st {
	case Connected:
		h.Status = component.StatusHealthy
	case Connecting:
		h.Status = component.StatusDegraded
		h.Message = "connecting"
	default:
		h.Status = component.StatusUnhealthy
		h.Message = st.String()
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	target := "unknown"
	if e, ok := c.session.dialer.(Endpointer); ok {
		target = e.Endpoint()
	}
	details := fmt.Sprintf("endpoint=%s auto_start=%v fail_on_disconnect=%v",
		target, c.session.initialSubject != "", c.session.cfg.FailOnDisconnect)
	return component.Description{Type: "stream", Details: details}
}
