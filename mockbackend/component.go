package mockbackend

import (
	"context"
	"fmt"

	"github.com/amobagan/nutristream/component"
)

// Component runs the Server under a component.Registry.
type Component struct {
	srv *Server
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

func NewComponent(srv *Server) *Component {
	return &Component{srv: srv}
}

func (c *Component) Server() *Server { return c.srv }

func (c *Component) Name() string { return serviceName }

func (c *Component) Start(ctx context.Context) error { return c.srv.Start(ctx) }

func (c *Component) Stop(ctx context.Context) error { return c.srv.Stop(ctx) }

func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	switch {
	case c.srv.stopped:
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	case c.srv.listener == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "not listening"
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Type: "server",
		Details: fmt.Sprintf("%s%s chunk_delay=%s token_ttl=%s",
			c.srv.Addr(), StreamPath, c.srv.cfg.ChunkDelay, c.srv.cfg.TokenTTL),
	}
}
