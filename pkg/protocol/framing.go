package protocol

import (
	"fmt"
	"strings"
)

// Framing selects how tokens and content are delimited on the wire.
type Framing int

const (
	// FramingLegacy is raw, sentinel-delimited bytes.
	FramingLegacy Framing = iota
	// FramingLengthPrefixed is kind+length framed messages.
	FramingLengthPrefixed
)

// String returns the configuration name of the framing.
func (f Framing) String() string {
	switch f {
	case FramingLegacy:
		return "legacy"
	case FramingLengthPrefixed:
		return "length-prefixed"
	default:
		return fmt.Sprintf("framing(%d)", int(f))
	}
}

// ParseFraming parses a configuration value. Empty means legacy.
func ParseFraming(s string) (Framing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy", "sentinel":
		return FramingLegacy, nil
	case "length-prefixed", "framed", "lp":
		return FramingLengthPrefixed, nil
	default:
		return FramingLegacy, fmt.Errorf("unknown framing %q (want legacy or length-prefixed)", s)
	}
}

// Set implements pflag.Value.
func (f *Framing) Set(s string) error {
	v, err := ParseFraming(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Type implements pflag.Value.
func (f *Framing) Type() string { return "framing" }
