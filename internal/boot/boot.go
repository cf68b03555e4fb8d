// Package boot orders process startup. The egress channel must be open
// before the ingress port is bound, and a missing channel ends the process
// with ExitFailClosed.
package boot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"sync"
	"syscall"

	"github.com/danmuck/slime/internal/abi"
	"github.com/danmuck/slime/internal/config"
	"github.com/danmuck/slime/internal/dashboard"
	"github.com/danmuck/slime/internal/egress"
	"github.com/danmuck/slime/internal/ingress"
	"github.com/danmuck/slime/internal/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Exit statuses reported by the slime binary.
const (
	ExitOK         = 0
	ExitFailClosed = 1
	ExitStartup    = 2
)

var (
	ErrFailClosed  = errors.New("boot: egress channel unavailable, refusing to serve")
	ErrNotOpen     = errors.New("boot: egress channel not open")
	ErrAlreadyOpen = errors.New("boot: egress channel already open")
	ErrServed      = errors.New("boot: sequencer already served")
)

type State uint8

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Sequencer moves from Closed to Open exactly once and only then exposes
// the ingress listener.
type Sequencer struct {
	cfg      config.Config
	resolver abi.Resolver
	bootID   string
	logger   zerolog.Logger
	ready    chan struct{}

	mu        sync.Mutex
	state     State
	channel   *egress.Channel
	ingress   *ingress.Server
	dashboard *dashboard.Server
}

func New(cfg config.Config, resolver abi.Resolver) *Sequencer {
	id := uuid.NewString()
	return &Sequencer{
		cfg:      cfg,
		resolver: resolver,
		bootID:   id,
		logger:   logging.Component("boot").With().Str("boot_id", id).Logger(),
		ready:    make(chan struct{}),
	}
}

func (s *Sequencer) BootID() string {
	return s.bootID
}

func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready is closed once ingress is bound.
func (s *Sequencer) Ready() <-chan struct{} {
	return s.ready
}

// Run blocks until SIGINT or SIGTERM.
func (s *Sequencer) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

func (s *Sequencer) RunContext(ctx context.Context) error {
	if err := s.Open(ctx); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Open establishes the egress channel. Failure leaves the sequencer
// Closed and wraps ErrFailClosed.
func (s *Sequencer) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateOpen {
		return ErrAlreadyOpen
	}

	channel, err := egress.Dial(ctx, s.cfg.Egress)
	if err != nil {
		s.logger.Error().Err(err).Str("socket", s.cfg.Egress.Socket).Msg("egress_init_failed")
		return fmt.Errorf("%w: %w", ErrFailClosed, err)
	}
	s.channel = channel
	s.state = StateOpen
	s.logger.Info().Str("socket", s.cfg.Egress.Socket).Msg("egress_connected")
	return nil
}

// Serve binds ingress and the auxiliary surface and blocks until ctx is
// done or a listener fails. It refuses to run unless Open succeeded.
func (s *Sequencer) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrNotOpen
	}
	if s.ingress != nil {
		s.mu.Unlock()
		return ErrServed
	}
	channel := s.channel
	in := ingress.NewServer(s.cfg.Ingress, ingress.NewPipeline(s.resolver, channel))
	if err := in.Listen(); err != nil {
		s.mu.Unlock()
		_ = channel.Close()
		return fmt.Errorf("bind ingress: %w", err)
	}
	s.ingress = in

	var dash *dashboard.Server
	if s.cfg.Dashboard.Enabled {
		dash = dashboard.New(s.cfg.Dashboard)
		if err := dash.Listen(); err != nil {
			s.mu.Unlock()
			_ = channel.Close()
			return fmt.Errorf("bind dashboard: %w", err)
		}
		s.dashboard = dash
	}
	s.mu.Unlock()
	close(s.ready)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return in.Serve(gctx) })
	if dash != nil {
		g.Go(func() error { return dash.Serve(gctx) })
	}
	err := g.Wait()

	stats := channel.Stats()
	_ = channel.Close()
	s.logger.Info().
		Uint64("effects_written", stats.Written).
		Uint64("effects_dropped", stats.Dropped).
		Msg("shutdown")
	return err
}

func (s *Sequencer) IngressAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ingress == nil {
		return nil
	}
	return s.ingress.Addr()
}

func (s *Sequencer) DashboardAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dashboard == nil {
		return nil
	}
	return s.dashboard.Addr()
}

// ExitCode maps a Run error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrFailClosed):
		return ExitFailClosed
	default:
		return ExitStartup
	}
}
