package wsclient

import (
	"context"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/amobagan/nutristream/errors"
	"github.com/amobagan/nutristream/logger"
	"github.com/amobagan/nutristream/provider"
	"github.com/amobagan/nutristream/stream"
	"github.com/amobagan/nutristream/version"
)

const providerName = "nutrition-ws"

// Client dials the analysis endpoint. It implements stream.Dialer.
type Client struct {
	cfg      Config
	dialer   *websocket.Dialer
	endpoint string
	log      *logger.Logger
}

var (
	_ stream.Dialer     = (*Client)(nil)
	_ stream.Endpointer = (*Client)(nil)
	_ provider.Provider = (*Client)(nil)
)

// New validates cfg and prepares the dialer. log may be nil.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u, err := cfg.StreamURL()
	if err != nil {
		return nil, err
	}
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, errors.Validation("invalid tls settings").WithCause(err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
			TLSClientConfig:  tlsCfg,
		},
		endpoint: u.String(),
		log:      log.WithComponent("wsclient").WithFields(logger.Fields(logger.FieldEndpoint, u.String())),
	}, nil
}

func (c *Client) Name() string { return providerName }

// Endpoint is the stream address without the credential.
func (c *Client) Endpoint() string { return c.endpoint }

// IsAvailable reports whether the endpoint host accepts TCP connections.
func (c *Client) IsAvailable(ctx context.Context) bool {
	u, err := c.cfg.StreamURL()
	if err != nil {
		return false
	}
	host := u.Host
	if u.Port() == "" {
		if u.Scheme == "wss" {
			host = net.JoinHostPort(u.Hostname(), "443")
		} else {
			host = net.JoinHostPort(u.Hostname(), "80")
		}
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Dial opens an authenticated connection. A handshake answered with 401 or
// 403 yields UNAUTHORIZED; any other failure CONNECTION_FAILED.
func (c *Client) Dial(ctx context.Context, credential string) (stream.Conn, error) {
	target, err := c.cfg.DialURL(credential)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("User-Agent", version.UserAgent("nutristream"))

	ws, resp, err := c.dialer.DialContext(ctx, target, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, errors.Unauthorized("The analysis service rejected the credential.").
				WithDetail("status", resp.StatusCode)
		}
		return nil, errors.ConnectionFailed(c.endpoint, err)
	}
	ws.SetReadLimit(c.cfg.MaxMessageBytes)

	c.log.Debug("connected", logger.Fields(logger.FieldRemoteAddr, ws.RemoteAddr().String()))
	return provider.Logged[stream.Request, stream.Message](newConn(ws, c.cfg.WriteTimeout), providerName, c.log), nil
}
