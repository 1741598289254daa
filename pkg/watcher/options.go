package watcher

import (
	"context"
	"net"

	"github.com/spf13/afero"

	"github.com/bft-labs/labship/pkg/lifecycle"
	"github.com/bft-labs/labship/pkg/log"
	"github.com/bft-labs/labship/pkg/state"
)

// Dialer opens connections to the server. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// Option configures optional behavior of a Watcher.
type Option func(*options)

type options struct {
	logger  log.Logger
	fs      afero.Fs
	clock   lifecycle.Clock
	dialer  Dialer
	repo    state.Repository
	emitter lifecycle.EventEmitter
	jitter  bool
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
		fs:     afero.NewOsFs(),
		clock:  lifecycle.RealClock(),
		dialer: &net.Dialer{},
		jitter: true,
	}
}

// WithLogger sets the logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFs sets the filesystem sources are read from and archived on.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithClock sets the clock for poll, retry and flush waits.
func WithClock(c lifecycle.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithDialer replaces the TCP dialer.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithStateRepository sets where the rejection ledger is kept. It overrides
// Config.StateDir.
func WithStateRepository(r state.Repository) Option {
	return func(o *options) {
		o.repo = r
	}
}

// WithEventEmitter receives lifecycle state changes.
func WithEventEmitter(e lifecycle.EventEmitter) Option {
	return func(o *options) {
		o.emitter = e
	}
}

// WithoutJitter makes retry waits exact.
func WithoutJitter() Option {
	return func(o *options) {
		o.jitter = false
	}
}
