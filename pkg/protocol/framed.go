package protocol

import (
	"encoding/binary"
	"io"
	"strings"

	"github.com/bft-labs/labship/internal/domain"
)

const (
	kindControl byte = 'C'
	kindData    byte = 'D'

	headerSize = 5
)

type framedCodec struct {
	rw io.ReadWriter
}

func (c *framedCodec) writeFrame(op string, kind byte, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return domain.Errorf(domain.KindProtocol, op, "", "frame of %d bytes exceeds %d", len(payload), MaxFrameSize)
	}
	var hdr [headerSize]byte
	hdr[0] = kind
	binary.BigEndian.PutUint32(hdr[1:], uint32(len(payload)))
	if _, err := c.rw.Write(hdr[:]); err != nil {
		return connError(op, err)
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := c.rw.Write(payload)
	return connError(op, err)
}

func (c *framedCodec) readFrame(op string) (byte, []byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(c.rw, hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, nil, closedEarly(op)
		}
		return 0, nil, connError(op, err)
	}
	kind := hdr[0]
	if kind != kindControl && kind != kindData {
		return 0, nil, domain.Errorf(domain.KindProtocol, op, "", "unknown frame kind %#x", kind)
	}
	size := binary.BigEndian.Uint32(hdr[1:])
	if size > MaxFrameSize {
		return 0, nil, domain.Errorf(domain.KindProtocol, op, "", "frame of %d bytes exceeds %d", size, MaxFrameSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(c.rw, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, nil, closedEarly(op)
		}
		return 0, nil, connError(op, err)
	}
	return kind, payload, nil
}

func (c *framedCodec) WriteHandshake(name string) error {
	return c.writeFrame("send name", kindControl, []byte(TokenFileName+name))
}

func (c *framedCodec) WriteData(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return c.writeFrame("send content", kindData, p)
}

func (c *framedCodec) WriteToken(token string) error {
	return c.writeFrame("send "+token, kindControl, []byte(token))
}

func (c *framedCodec) ReadReply() (string, error) {
	kind, payload, err := c.readFrame("read reply")
	if err != nil {
		return "", err
	}
	if kind != kindControl {
		return "", domain.Errorf(domain.KindProtocol, "read reply", "", "expected control frame, got data")
	}
	return string(payload), nil
}

func (c *framedCodec) ReadHandshake() (string, error) {
	kind, payload, err := c.readFrame("read name")
	if err != nil {
		return "", err
	}
	msg := string(payload)
	if kind != kindControl || !strings.HasPrefix(msg, TokenFileName) {
		return "", domain.Errorf(domain.KindProtocol, "read name", "", "expected %s frame", TokenFileName)
	}
	return msg[len(TokenFileName):], nil
}

func (c *framedCodec) CopyContent(w io.Writer) (int64, error) {
	var written int64
	for {
		kind, payload, err := c.readFrame("read content")
		if err != nil {
			return written, err
		}
		if kind == kindControl {
			if string(payload) == TokenEndOfTransmission {
				return written, nil
			}
			return written, domain.Errorf(domain.KindProtocol, "read content", "", "unexpected token %q", truncate(string(payload), 32))
		}
		n, err := w.Write(payload)
		written += int64(n)
		if err != nil {
			return written, domain.NewError(domain.KindIO, "write content", "", err)
		}
	}
}
