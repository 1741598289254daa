package protocol

import (
	"bytes"
	"io"
	"strings"

	"github.com/bft-labs/labship/internal/domain"
)

var eot = []byte(TokenEndOfTransmission)

type legacyCodec struct {
	rw io.ReadWriter
}

func (c *legacyCodec) WriteHandshake(name string) error {
	_, err := io.WriteString(c.rw, TokenFileName+name)
	return connError("send name", err)
}

func (c *legacyCodec) WriteData(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	_, err := c.rw.Write(p)
	return connError("send content", err)
}

func (c *legacyCodec) WriteToken(token string) error {
	_, err := io.WriteString(c.rw, token)
	return connError("send "+token, err)
}

func (c *legacyCodec) ReadReply() (string, error) {
	buf := make([]byte, replyReadSize)
	n, err := c.rw.Read(buf)
	if n > 0 {
		return string(buf[:n]), nil
	}
	if err == nil || err == io.EOF {
		return "", closedEarly("read reply")
	}
	return "", connError("read reply", err)
}

func (c *legacyCodec) ReadHandshake() (string, error) {
	buf := make([]byte, handshakeReadSize)
	n, err := c.rw.Read(buf)
	if n == 0 {
		if err == nil || err == io.EOF {
			return "", closedEarly("read name")
		}
		return "", connError("read name", err)
	}
	msg := string(buf[:n])
	if !strings.HasPrefix(msg, TokenFileName) {
		return "", domain.Errorf(domain.KindProtocol, "read name", "", "expected %s, got %q", TokenFileName, truncate(msg, 32))
	}
	return msg[len(TokenFileName):], nil
}

// CopyContent writes everything before the terminator to w. The last
// len(END_OF_TRANSMISSION)-1 bytes are held back after each read, so a
// terminator split across reads is recognised and never written.
func (c *legacyCodec) CopyContent(w io.Writer) (int64, error) {
	hold := len(eot) - 1
	buf := make([]byte, ChunkSize)
	pending := make([]byte, 0, ChunkSize+hold+1)
	var written int64

	flush := func(p []byte) error {
		n, err := w.Write(p)
		written += int64(n)
		if err != nil {
			return domain.NewError(domain.KindIO, "write content", "", err)
		}
		return nil
	}

	for {
		n, err := c.rw.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			if bytes.HasSuffix(pending, eot) {
				return written, flush(pending[:len(pending)-len(eot)])
			}
			if len(pending) > hold {
				cut := len(pending) - hold
				if ferr := flush(pending[:cut]); ferr != nil {
					return written, ferr
				}
				pending = append(pending[:0], pending[cut:]...)
			}
		}
		if err != nil {
			if err == io.EOF {
				return written, closedEarly("read content")
			}
			return written, connError("read content", err)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
