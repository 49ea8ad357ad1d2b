package bus

import (
	"context"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"
)

// ValkeyConfig configures the pooled Redis/Valkey client.
type ValkeyConfig struct {
	URL            string
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// ValkeyClient wraps a pooled valkey-go client with a namespaced key
// builder.
type ValkeyClient struct {
	inner     valkeylib.Client
	keyPrefix string
}

// NewValkeyClient dials url (a redis:// or valkey:// URL) and pings it.
func NewValkeyClient(cfg ValkeyConfig) (*ValkeyClient, error) {
	opt, err := valkeylib.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	c, err := valkeylib.NewClient(opt)
	if err != nil {
		return nil, err
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.Do(ctx, c.B().Ping().Build()).Error(); err != nil {
		c.Close()
		return nil, err
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &ValkeyClient{inner: c, keyPrefix: prefix}, nil
}

// Inner exposes the underlying valkey-go client for callers needing direct
// command access.
func (c *ValkeyClient) Inner() valkeylib.Client { return c.inner }

// Close releases the underlying connection pool.
func (c *ValkeyClient) Close() { c.inner.Close() }

// Key builds a namespaced key from parts, e.g. Key("outbound", "high").
func (c *ValkeyClient) Key(parts ...string) string {
	return c.keyPrefix + strings.Join(parts, ":")
}

// IsNil reports whether err represents a Redis/Valkey nil reply.
func (c *ValkeyClient) IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
