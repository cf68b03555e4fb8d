package ingress

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/danmuck/slime/internal/logging"
	"github.com/danmuck/slime/internal/observability"
	"github.com/danmuck/slime/internal/protocol"
	"github.com/danmuck/slime/internal/protocol/frame"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

var (
	ErrNotListening = errors.New("ingress: listener not bound")
	ErrConfig       = errors.New("ingress: invalid config")
)

type Config struct {
	Address     string        `toml:"address"`
	MaxHandlers int           `toml:"max_handlers"`
	ReadTimeout time.Duration `toml:"read_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Address:     "127.0.0.1:8080",
		MaxHandlers: 256,
		ReadTimeout: 5 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("%w: empty address", ErrConfig)
	}
	if c.MaxHandlers <= 0 {
		return fmt.Errorf("%w: max_handlers must be positive", ErrConfig)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("%w: negative read_timeout", ErrConfig)
	}
	return nil
}

// Server accepts connections and hands each one to a bounded handler. A
// handler slot is taken before Accept, so at most MaxHandlers connections
// are ever open.
type Server struct {
	cfg      Config
	pipeline *Pipeline
	logger   zerolog.Logger
	slots    *semaphore.Weighted
	buffers  sync.Pool

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewServer(cfg Config, pipeline *Pipeline) *Server {
	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		logger:   logging.Component("ingress"),
		slots:    semaphore.NewWeighted(int64(cfg.MaxHandlers)),
		buffers: sync.Pool{New: func() any {
			buf := make([]byte, protocol.ReadBufferSize)
			return &buf
		}},
		conns: make(map[net.Conn]struct{}),
	}
}

// Listen binds the configured address. Binding is separate from Serve so
// callers control exactly when the port exists.
func (s *Server) Listen() error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve runs the accept loop until ctx is done, then closes the listener
// and every open connection and waits for handlers to return.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return ErrNotListening
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Int("max_handlers", s.cfg.MaxHandlers).Msg("ingress_started")

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
		s.closeConns()
	})
	defer stop()
	defer s.wg.Wait()

	for {
		if err := s.slots.Acquire(ctx, 1); err != nil {
			return nil
		}
		conn, err := ln.Accept()
		if err != nil {
			s.slots.Release(1)
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			_ = ln.Close()
			s.closeConns()
			return err
		}
		s.track(conn)
		if ctx.Err() != nil {
			_ = conn.Close()
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.slots.Release(1)
			defer s.untrack(conn)
			s.handle(conn)
		}()
	}
}

// handle performs one read, answers once and closes.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	start := time.Now()

	bufp := s.buffers.Get().(*[]byte)
	buf := *bufp
	defer func() {
		clear(buf)
		s.buffers.Put(bufp)
	}()

	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetDeadline(start.Add(s.cfg.ReadTimeout))
	}
	n, err := frame.ReadOnce(conn, buf)
	if err != nil {
		s.logger.Debug().Str("outcome", string(OutcomeAbandoned)).Msg("abandoned")
		observability.RecordIngress(string(OutcomeAbandoned), time.Since(start))
		return
	}

	outcome, resp := s.pipeline.HandleRaw(buf[:n])
	_, _ = conn.Write(resp.Bytes())
	observability.RecordIngress(string(outcome), time.Since(start))
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
