// Package egress owns the single channel to the actuator. The channel is
// dialed once during boot and never re-established; a failed runtime write
// drops that effect and nothing else.
package egress

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/danmuck/slime/internal/abi"
	"github.com/danmuck/slime/internal/logging"
	"github.com/danmuck/slime/internal/observability"
	"github.com/rs/zerolog"
)

var (
	ErrUnavailable = errors.New("egress: actuator channel unavailable")
	ErrPeer        = errors.New("egress: unexpected actuator peer")
	ErrConfig      = errors.New("egress: invalid config")
)

const (
	resultWritten = "written"
	resultDropped = "dropped"
)

type Config struct {
	Socket       string        `toml:"socket"`
	DialTimeout  time.Duration `toml:"dial_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`

	// ActuatorUID pins the peer's uid on linux. Negative accepts any peer.
	ActuatorUID int `toml:"actuator_uid"`
}

func DefaultConfig() Config {
	return Config{
		Socket:       "/run/slime/egress.sock",
		DialTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		ActuatorUID:  -1,
	}
}

func (c Config) Validate() error {
	if c.Socket == "" {
		return fmt.Errorf("%w: empty socket path", ErrConfig)
	}
	if c.DialTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrConfig)
	}
	return nil
}

type Stats struct {
	Written uint64
	Dropped uint64
	Broken  bool
}

// Channel serializes effects onto one connection. All writes hold mu, so
// records never interleave.
type Channel struct {
	cfg    Config
	logger zerolog.Logger

	mu     sync.Mutex
	conn   net.Conn
	broken bool
	closed bool
	stats  Stats
}

// Dial establishes the channel. Any failure, including a peer that fails
// credential verification, is reported as ErrUnavailable.
func Dial(ctx context.Context, cfg Config) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", cfg.Socket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if cfg.ActuatorUID >= 0 {
		if err := verifyPeer(conn, cfg.ActuatorUID); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}
	return New(conn, cfg), nil
}

// New wraps an established connection.
func New(conn net.Conn, cfg Config) *Channel {
	return &Channel{
		cfg:    cfg,
		conn:   conn,
		logger: logging.Component("egress"),
	}
}

// Apply writes one 32-byte record. It reports whether the record was
// written in full; failures are not retried. A short write leaves the
// stream misaligned, so the channel stops accepting records after one.
func (c *Channel) Apply(effect abi.AuthorizedEffect) bool {
	record := effect.Encode()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.broken {
		c.drop()
		return false
	}
	if c.cfg.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	n, err := c.conn.Write(record[:])
	if err != nil || n != len(record) {
		if n > 0 && n < len(record) {
			c.broken = true
			c.stats.Broken = true
			c.logger.Error().Str("event", "egress_broken").Msg("partial record written")
		}
		c.logger.Warn().Str("event", "egress_write_failed").Msg("effect dropped")
		c.drop()
		return false
	}
	c.stats.Written++
	observability.RecordEgress(resultWritten)
	return true
}

func (c *Channel) drop() {
	c.stats.Dropped++
	observability.RecordEgress(resultDropped)
}

func (c *Channel) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
