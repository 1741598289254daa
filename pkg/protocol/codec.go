package protocol

import (
	"errors"
	"io"
	"net"
	"os"

	"github.com/bft-labs/labship/internal/domain"
)

// Codec reads and writes session messages over one connection.
// The client uses the Write* methods and ReadReply; the server uses
// ReadHandshake, CopyContent and WriteToken.
type Codec interface {
	// WriteHandshake sends FILE_NAME immediately followed by name, as one write.
	WriteHandshake(name string) error

	// WriteData sends one chunk of file content. Empty chunks are not sent.
	WriteData(p []byte) error

	// WriteToken sends a bare token.
	WriteToken(token string) error

	// ReadReply reads one reply from the server.
	ReadReply() (string, error)

	// ReadHandshake reads the FILE_NAME message and returns the filename.
	ReadHandshake() (string, error)

	// CopyContent copies content into w until END_OF_TRANSMISSION.
	CopyContent(w io.Writer) (int64, error)
}

// NewCodec returns the codec for framing over rw.
func NewCodec(framing Framing, rw io.ReadWriter) Codec {
	if framing == FramingLengthPrefixed {
		return &framedCodec{rw: rw}
	}
	return &legacyCodec{rw: rw}
}

// connError wraps a socket failure. Timeouts and resets are retryable
// connection errors.
func connError(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *domain.TransferError
	if errors.As(err, &te) {
		return err
	}
	if isTimeout(err) {
		op += " timed out"
	}
	return domain.NewError(domain.KindConnection, op, "", err)
}

// isTimeout reports whether err is a deadline expiry.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func closedEarly(op string) error {
	return domain.NewError(domain.KindConnection, op, "", io.ErrUnexpectedEOF)
}
