package archive

import (
	"context"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/amobagan/nutristream/component"
	"github.com/amobagan/nutristream/logger"
	"github.com/amobagan/nutristream/provider"
)

// Component opens the configured backend on Start and exposes the Archive.
type Component struct {
	cfg Config
	log *logger.Logger

	mu      sync.RWMutex
	rdb     *goredis.Client
	archive *Archive
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{cfg: cfg, log: log.WithComponent("archive")}
}

// Archive returns nil before Start.
func (c *Component) Archive() *Archive {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.archive
}

func (c *Component) Name() string { return "archive" }

func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("archive config: %w", err)
	}

	var store provider.ContextStore[Report]
	var rdb *goredis.Client
	switch c.cfg.Backend {
	case BackendRedis:
		rdb = goredis.NewClient(&goredis.Options{
			Addr:         c.cfg.Addr,
			Password:     c.cfg.Password,
			DB:           c.cfg.DB,
			PoolSize:     c.cfg.PoolSize,
			DialTimeout:  c.cfg.DialTimeout,
			ReadTimeout:  c.cfg.ReadTimeout,
			WriteTimeout: c.cfg.WriteTimeout,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return fmt.Errorf("archive start ping: %w", err)
		}
		store = NewRedisStore[Report](rdb, c.cfg.KeyPrefix)
	default:
		store = provider.NewMemoryStore[Report]()
	}

	c.mu.Lock()
	c.rdb = rdb
	c.archive = New(store, c.cfg.TTL, c.log)
	c.mu.Unlock()
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rdb == nil {
		return nil
	}
	err := c.rdb.Close()
	c.rdb = nil
	return err
}

func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	rdb, started := c.rdb, c.archive != nil
	c.mu.RUnlock()

	switch {
	case !started:
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "archive not started"}
	case rdb == nil:
		return component.Health{Name: c.Name(), Status: component.StatusHealthy}
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("ping failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	details := "memory"
	if c.cfg.Backend == BackendRedis {
		details = fmt.Sprintf("redis %s db=%d pool=%d", c.cfg.Addr, c.cfg.DB, c.cfg.PoolSize)
	}
	if c.cfg.TTL > 0 {
		details += fmt.Sprintf(" ttl=%s", c.cfg.TTL)
	}
	return component.Description{Type: "archive", Details: details}
}
