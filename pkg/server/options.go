package server

import (
	"github.com/spf13/afero"

	"github.com/bft-labs/labship/pkg/lifecycle"
	"github.com/bft-labs/labship/pkg/log"
)

// Option configures optional behavior of a Server.
type Option func(*options)

type options struct {
	logger  log.Logger
	fs      afero.Fs
	clock   lifecycle.Clock
	emitter lifecycle.EventEmitter
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
		fs:     afero.NewOsFs(),
		clock:  lifecycle.RealClock(),
	}
}

// WithLogger sets the logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFs sets the filesystem destinations are written to.
// If not provided, the OS filesystem is used.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithClock sets the clock used for accept-error backoff.
func WithClock(c lifecycle.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithEventEmitter receives lifecycle state changes.
func WithEventEmitter(e lifecycle.EventEmitter) Option {
	return func(o *options) {
		o.emitter = e
	}
}
