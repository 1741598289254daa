package server

import (
	"fmt"
	"time"

	"github.com/bft-labs/labship/internal/domain"
	"github.com/bft-labs/labship/pkg/lifecycle"
	"github.com/bft-labs/labship/pkg/protocol"
)

// DefaultDataRoot is where the legacy server wrote instrument files.
const DefaultDataRoot = "/opt/gls/clarity/data"

// Config holds the server settings.
type Config struct {
	// ListenAddr is the TCP address to bind, e.g. ":5005".
	ListenAddr string

	// DataRoot is the directory files are routed below.
	DataRoot string

	Framing protocol.Framing

	// IOTimeout bounds each read and write of a session. Zero disables it.
	IOTimeout time.Duration

	// ShutdownTimeout bounds the wait for in-flight sessions on stop.
	ShutdownTimeout time.Duration
}

// SetDefaults fills in zero values.
func (c *Config) SetDefaults() {
	if c.DataRoot == "" {
		c.DataRoot = DefaultDataRoot
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = lifecycle.ShutdownTimeout
	}
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	if c.DataRoot == "" {
		return fmt.Errorf("%w: data root is required", domain.ErrInvalidConfig)
	}
	if c.IOTimeout < 0 {
		return fmt.Errorf("%w: io timeout must not be negative", domain.ErrInvalidConfig)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: shutdown timeout must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}
