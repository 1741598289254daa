package protocol

import (
	"context"
	"io"
	"net"
	"strings"
	"time"

	"github.com/bft-labs/labship/internal/domain"
	"github.com/bft-labs/labship/pkg/lifecycle"
	"github.com/bft-labs/labship/pkg/log"
)

// DefaultFlushDelay is the pause before END_OF_TRANSMISSION that lets a
// legacy receiver see the terminator in a read of its own.
const DefaultFlushDelay = time.Second

// SenderConfig configures the client half of a session.
type SenderConfig struct {
	Framing Framing

	// FlushDelay is waited between the last content write and the
	// terminator. Zero sends the terminator immediately.
	FlushDelay time.Duration

	// IOTimeout bounds every read and write. Zero means no bound.
	IOTimeout time.Duration

	Clock lifecycle.Clock
}

// Sender runs the client half of a session.
type Sender struct {
	cfg    SenderConfig
	logger log.Logger
}

// NewSender returns a Sender. A nil logger discards output.
func NewSender(cfg SenderConfig, logger log.Logger) *Sender {
	if cfg.Clock == nil {
		cfg.Clock = lifecycle.RealClock()
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Sender{cfg: cfg, logger: logger}
}

// Send transfers one file over conn: handshake, content, terminator, ack.
// It returns the number of content bytes written. conn is not closed.
//
// A server ERROR reply is returned as a routing error. Any reply to the
// terminator other than FILE_CONTENTS_RECEIVED is a retryable protocol
// error.
func (s *Sender) Send(ctx context.Context, conn net.Conn, name string, content io.Reader) (int64, error) {
	sess := NewSession(RoleClient)
	sess.setName(name)

	gc := guard(ctx, conn, s.cfg.IOTimeout)
	defer gc.release()

	n, err := s.run(ctx, sess, NewCodec(s.cfg.Framing, gc), name, content)
	if err != nil {
		if ctx.Err() != nil {
			err = domain.NewError(domain.KindConnection, "send", name, ctx.Err())
		}
		return n, sess.Fail(withPath(err, name))
	}
	return n, nil
}

func (s *Sender) run(ctx context.Context, sess *Session, codec Codec, name string, content io.Reader) (int64, error) {
	if err := codec.WriteHandshake(name); err != nil {
		return 0, err
	}
	if err := sess.Advance(StateNameSent); err != nil {
		return 0, err
	}

	reply, err := codec.ReadReply()
	if err != nil {
		return 0, err
	}
	switch {
	case strings.Contains(reply, TokenFileNameReceived):
	case strings.Contains(reply, TokenError):
		return 0, domain.Errorf(domain.KindRouting, "handshake", name, "server rejected filename")
	default:
		return 0, domain.Errorf(domain.KindProtocol, "handshake", name, "unexpected reply %q", truncate(reply, 32))
	}
	if err := sess.Advance(StateNameAcked); err != nil {
		return 0, err
	}
	s.logger.Debug("filename accepted", log.String("file", name))

	if err := sess.Advance(StateStreaming); err != nil {
		return 0, err
	}
	sent, err := s.stream(codec, content)
	if err != nil {
		return sent, err
	}

	if s.cfg.FlushDelay > 0 {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		case <-s.cfg.Clock.After(s.cfg.FlushDelay):
		}
	}
	if err := codec.WriteToken(TokenEndOfTransmission); err != nil {
		return sent, err
	}

	reply, err = codec.ReadReply()
	if err != nil {
		return sent, err
	}
	if !strings.Contains(reply, TokenContentsReceived) {
		return sent, domain.Errorf(domain.KindProtocol, "await ack", name, "contents not acknowledged, got %q", truncate(reply, 32))
	}
	if err := sess.Advance(StateDataAcked); err != nil {
		return sent, err
	}
	return sent, sess.Advance(StateClosed)
}

func (s *Sender) stream(codec Codec, content io.Reader) (int64, error) {
	if content == nil {
		return 0, nil
	}
	buf := make([]byte, ChunkSize)
	var sent int64
	for {
		n, rerr := content.Read(buf)
		if n > 0 {
			if err := codec.WriteData(buf[:n]); err != nil {
				return sent, err
			}
			sent += int64(n)
		}
		if rerr == io.EOF {
			return sent, nil
		}
		if rerr != nil {
			return sent, domain.NewError(domain.KindIO, "read source", "", rerr)
		}
	}
}

// withPath fills in the file name on errors raised below the session.
func withPath(err error, name string) error {
	if te, ok := err.(*domain.TransferError); ok && te.Path == "" {
		cp := *te
		cp.Path = name
		return &cp
	}
	if _, ok := err.(*domain.TransferError); !ok {
		return domain.NewError(domain.KindConnection, "send", name, err)
	}
	return err
}
