// Package actuator is a reference consumer of the egress record stream.
// It stands in for the privileged actuator during development and tests.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"sync"

	"github.com/danmuck/slime/internal/abi"
	"github.com/danmuck/slime/internal/logging"
	"github.com/rs/zerolog"
)

var ErrNotSocket = errors.New("actuator: path exists and is not a socket")

// Sink receives each decoded effect in stream order.
type Sink interface {
	Actuate(effect abi.AuthorizedEffect)
}

type SinkFunc func(effect abi.AuthorizedEffect)

func (f SinkFunc) Actuate(effect abi.AuthorizedEffect) {
	f(effect)
}

type Bridge struct {
	path   string
	sink   Sink
	logger zerolog.Logger

	mu     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// Listen binds a unix socket at path. A stale socket left by a previous
// run is removed; any other file at path is an error.
func Listen(path string, sink Sink) (*Bridge, error) {
	if err := removeStaleSocket(path); err != nil {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return &Bridge{
		path:   path,
		sink:   sink,
		logger: logging.Component("actuator"),
		ln:     ln,
		conns:  make(map[net.Conn]struct{}),
	}, nil
}

func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSocket == 0 {
		return fmt.Errorf("%w: %s", ErrNotSocket, path)
	}
	return os.Remove(path)
}

func (b *Bridge) Addr() net.Addr {
	return b.ln.Addr()
}

// Serve accepts connections until ctx is done or the bridge is closed.
func (b *Bridge) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = b.Close() })
	defer stop()
	defer b.wg.Wait()

	b.logger.Info().Str("socket", b.path).Msg("actuator_listening")
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			if b.isClosed() {
				return nil
			}
			return err
		}
		if !b.track(conn) {
			_ = conn.Close()
			return nil
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer b.untrack(conn)
			b.consume(conn)
		}()
	}
}

// consume reads fixed-size records until the peer goes away.
func (b *Bridge) consume(conn net.Conn) {
	defer conn.Close()
	b.logger.Info().Msg("egress_peer_connected")
	for {
		effect, err := abi.ReadEffect(conn)
		switch {
		case err == nil:
			b.sink.Actuate(effect)
		case errors.Is(err, io.EOF):
			b.logger.Info().Msg("egress_peer_closed")
			return
		case errors.Is(err, abi.ErrShortEffect):
			b.logger.Warn().Msg("short trailing record dropped")
			return
		default:
			if !b.isClosed() {
				b.logger.Warn().Err(err).Msg("egress_peer_read_failed")
			}
			return
		}
	}
}

func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for conn := range b.conns {
		_ = conn.Close()
	}
	b.mu.Unlock()
	err := b.ln.Close()
	_ = os.Remove(b.path)
	return err
}

func (b *Bridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Bridge) track(conn net.Conn) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.conns[conn] = struct{}{}
	return true
}

func (b *Bridge) untrack(conn net.Conn) {
	b.mu.Lock()
	delete(b.conns, conn)
	b.mu.Unlock()
}

// LogSink logs each effect's domain id, magnitude and token.
func LogSink(logger zerolog.Logger) Sink {
	return SinkFunc(func(effect abi.AuthorizedEffect) {
		logger.Info().
			Str("domain_id", fmt.Sprintf("0x%08x", effect.DomainID)).
			Uint64("magnitude", effect.Magnitude).
			Str("token", effect.Token.String()).
			Msg("effect")
	})
}
