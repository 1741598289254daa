package protocol

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/bft-labs/labship/internal/domain"
	"github.com/bft-labs/labship/pkg/log"
)

// Opener resolves a received filename and opens its destination for
// writing, truncating any existing file. A routing or protocol error makes
// the receiver answer ERROR; any other error closes the connection without
// a reply.
type Opener interface {
	Open(name string) (io.WriteCloser, domain.Destination, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(name string) (io.WriteCloser, domain.Destination, error)

func (f OpenerFunc) Open(name string) (io.WriteCloser, domain.Destination, error) { return f(name) }

// ReceiverConfig configures the server half of a session.
type ReceiverConfig struct {
	Framing Framing

	// IOTimeout bounds every read and write. Zero means no bound.
	IOTimeout time.Duration
}

// Result describes a completed receive.
type Result struct {
	Name        string
	Destination domain.Destination
	Bytes       int64
}

// Receiver runs the server half of a session.
type Receiver struct {
	cfg    ReceiverConfig
	logger log.Logger
}

// NewReceiver returns a Receiver. A nil logger discards output.
func NewReceiver(cfg ReceiverConfig, logger log.Logger) *Receiver {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Receiver{cfg: cfg, logger: logger}
}

// Receive reads one file from conn into the destination chosen by opener.
// conn is not closed. On any error the destination, if opened, is closed
// and left as written so far; the next successful transfer of the same
// name truncates it.
func (r *Receiver) Receive(ctx context.Context, conn net.Conn, opener Opener) (Result, error) {
	sess := NewSession(RoleServer)
	gc := guard(ctx, conn, r.cfg.IOTimeout)
	defer gc.release()

	res, err := r.run(sess, NewCodec(r.cfg.Framing, gc), opener)
	if err != nil {
		return res, sess.Fail(withPath(err, sess.Name()))
	}
	return res, nil
}

func (r *Receiver) run(sess *Session, codec Codec, opener Opener) (Result, error) {
	var res Result
	if err := sess.Advance(StateAwaitName); err != nil {
		return res, err
	}

	name, err := codec.ReadHandshake()
	if err != nil {
		if domain.Classify(err) == domain.KindProtocol {
			_ = codec.WriteToken(TokenError)
		}
		return res, err
	}
	sess.setName(name)
	res.Name = name

	w, dst, err := opener.Open(name)
	if err != nil {
		switch domain.Classify(err) {
		case domain.KindRouting, domain.KindProtocol:
			if werr := codec.WriteToken(TokenError); werr != nil {
				r.logger.Warn("could not send ERROR", log.String("file", name), log.Err(werr))
			}
		}
		return res, err
	}
	res.Destination = dst

	if err := codec.WriteToken(TokenFileNameReceived); err != nil {
		w.Close()
		return res, err
	}
	if err := sess.Advance(StateNameAcked); err != nil {
		w.Close()
		return res, err
	}
	if err := sess.Advance(StateStreaming); err != nil {
		w.Close()
		return res, err
	}

	n, err := codec.CopyContent(w)
	res.Bytes = n
	cerr := w.Close()
	if err != nil {
		return res, err
	}
	if cerr != nil {
		return res, domain.NewError(domain.KindIO, "close destination", dst.Path, cerr)
	}

	if err := codec.WriteToken(TokenContentsReceived); err != nil {
		return res, err
	}
	if err := sess.Advance(StateDataAcked); err != nil {
		return res, err
	}
	return res, sess.Advance(StateClosed)
}
