package watcher

import (
	"fmt"
	"time"

	"github.com/bft-labs/labship/internal/domain"
	"github.com/bft-labs/labship/pkg/archive"
	"github.com/bft-labs/labship/pkg/protocol"
)

// Defaults match the legacy watcher where one existed.
const (
	DefaultPollInterval  = 500 * time.Millisecond
	DefaultExtension     = ".csv"
	DefaultDialTimeout   = 2 * time.Second
	DefaultIOTimeout     = 30 * time.Second
	DefaultRetryDelay    = 10 * time.Second
	DefaultMaxRetryDelay = 5 * time.Minute
	DefaultMaxRejections = 3
)

// Config holds the watcher settings.
type Config struct {
	// Sources are the watched directories. Each gets Archives/ and
	// Rejected/ subdirectories on demand.
	Sources []string

	// Addr is the server's host:port.
	Addr string

	// Extension selects files by case-insensitive suffix. Empty ships
	// every regular file.
	Extension string

	PollInterval time.Duration
	DialTimeout  time.Duration
	IOTimeout    time.Duration

	// FlushDelay is the pause before END_OF_TRANSMISSION.
	FlushDelay time.Duration

	// RetryDelay is the first wait after a failed transfer; later
	// failures double it up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	Framing protocol.Framing

	// MaxRejections is how often the server may refuse a file before it
	// is moved to Rejected/. Zero retries forever.
	MaxRejections int

	// StateDir holds the rejection ledger. Empty keeps it in memory.
	StateDir string

	// Notify wakes the poll loop early on filesystem events.
	Notify bool

	// Once runs a single cycle and returns.
	Once bool

	// Retention prunes each source's Archives directory after a cycle.
	// The zero value keeps archives forever.
	Retention archive.Retention
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	c := Config{MaxRejections: DefaultMaxRejections, Extension: DefaultExtension}
	c.SetDefaults()
	return c
}

// SetDefaults fills in zero durations. Extension and MaxRejections are
// left alone because their zero values are meaningful.
func (c *Config) SetDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.IOTimeout == 0 {
		c.IOTimeout = DefaultIOTimeout
	}
	if c.FlushDelay == 0 {
		c.FlushDelay = protocol.DefaultFlushDelay
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.MaxRetryDelay == 0 {
		c.MaxRetryDelay = DefaultMaxRetryDelay
	}
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("%w: at least one source directory is required", domain.ErrInvalidConfig)
	}
	for _, s := range c.Sources {
		if s == "" {
			return fmt.Errorf("%w: empty source directory", domain.ErrInvalidConfig)
		}
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: server address is required", domain.ErrInvalidConfig)
	}
	if c.PollInterval < 0 || c.DialTimeout < 0 || c.IOTimeout < 0 || c.FlushDelay < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("%w: durations must not be negative", domain.ErrInvalidConfig)
	}
	if c.MaxRetryDelay < c.RetryDelay {
		return fmt.Errorf("%w: max retry delay %s is below retry delay %s", domain.ErrInvalidConfig, c.MaxRetryDelay, c.RetryDelay)
	}
	if c.MaxRejections < 0 {
		return fmt.Errorf("%w: max rejections must not be negative", domain.ErrInvalidConfig)
	}
	if err := c.Retention.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return nil
}
