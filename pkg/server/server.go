package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/bft-labs/labship/internal/domain"
	"github.com/bft-labs/labship/pkg/lifecycle"
	"github.com/bft-labs/labship/pkg/log"
	"github.com/bft-labs/labship/pkg/protocol"
	"github.com/bft-labs/labship/pkg/routing"
)

const (
	acceptRetryMin = 5 * time.Millisecond
	acceptRetryMax = time.Second
)

// Server accepts transfer sessions. Use New, then ListenAndServe or Serve.
type Server struct {
	cfg       Config
	router    *routing.Router
	fs        afero.Fs
	clock     lifecycle.Clock
	logger    log.Logger
	lifecycle *lifecycle.DefaultManager

	mu sync.Mutex
	ln net.Listener
}

// New creates a Server routing with table. The table is shared read-only
// by every session.
func New(cfg Config, table *routing.Table, opts ...Option) (*Server, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, errors.New("server: nil routing table")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Server{
		cfg:       cfg,
		router:    routing.NewRouter(table, cfg.DataRoot),
		fs:        o.fs,
		clock:     o.clock,
		logger:    o.logger,
		lifecycle: lifecycle.NewManager(o.logger, o.emitter),
	}, nil
}

// ListenAndServe binds cfg.ListenAddr and serves until ctx is canceled.
// A bind failure is returned as a connection error.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return domain.NewError(domain.KindConnection, "listen", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled or ln is closed,
// then waits up to ShutdownTimeout for in-flight sessions. ln is closed on
// return. Returns nil after a clean stop and ErrShutdownTimeout when
// sessions had to be abandoned.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(lifecycle.StateStarting, "Serve() called"); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.lifecycle.SetCancel(cancel)

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	if err := s.lifecycle.TransitionTo(lifecycle.StateRunning, "listening"); err != nil {
		_ = ln.Close()
		return err
	}
	s.logger.Info("server listening",
		log.String("addr", ln.Addr().String()),
		log.String("data_root", s.cfg.DataRoot),
		log.String("framing", s.cfg.Framing.String()))

	s.acceptLoop(ctx, ln)
	_ = ln.Close()

	_ = s.lifecycle.TransitionTo(lifecycle.StateStopping, "listener closed")
	cancel()
	err := s.lifecycle.WaitWithTimeout(s.cfg.ShutdownTimeout)
	if err != nil {
		_ = s.lifecycle.TransitionTo(lifecycle.StateCrashed, "shutdown timeout")
		return err
	}
	_ = s.lifecycle.TransitionTo(lifecycle.StateStopped, "graceful shutdown")
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	backoff := lifecycle.NewBackoff(acceptRetryMin, acceptRetryMax, s.clock).WithoutJitter()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed, retrying",
				log.Duration("delay", backoff.Current()),
				log.Err(err))
			if backoff.Wait(ctx) != nil {
				return
			}
			continue
		}
		backoff.Reset()

		id := uuid.NewString()
		s.lifecycle.Go(func() { s.handle(ctx, id, conn) })
	}
}

// handle runs one session and always closes conn.
func (s *Server) handle(ctx context.Context, id string, conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With(
		log.String("session", id),
		log.String("remote", conn.RemoteAddr().String()))
	logger.Debug("connection accepted")

	start := s.clock.Now()
	recv := protocol.NewReceiver(protocol.ReceiverConfig{
		Framing:   s.cfg.Framing,
		IOTimeout: s.cfg.IOTimeout,
	}, logger)

	res, err := recv.Receive(ctx, conn, destOpener{fs: s.fs, router: s.router})
	if err != nil {
		logger.Error("transfer failed",
			log.String("file", res.Name),
			log.String("kind", domain.Classify(err).String()),
			log.Err(err))
		return
	}
	logger.Info("file received",
		log.String("file", res.Name),
		log.String("group", res.Destination.GroupID),
		log.String("type", res.Destination.Type),
		log.String("dest", res.Destination.Path),
		log.Int64("bytes", res.Bytes),
		log.Duration("took", s.clock.Now().Sub(start)))
}

// Stop cancels Serve. It returns ErrNotRunning if the server is not serving.
func (s *Server) Stop() error {
	if !s.lifecycle.CanStop() {
		return domain.ErrNotRunning
	}
	s.lifecycle.Cancel()
	return nil
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// State returns the lifecycle state.
func (s *Server) State() lifecycle.State {
	return s.lifecycle.State()
}

// Router returns the router sessions resolve filenames with.
func (s *Server) Router() *routing.Router {
	return s.router
}
