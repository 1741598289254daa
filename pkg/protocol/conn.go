package protocol

import (
	"context"
	"net"
	"time"
)

// aLongTimeAgo is a deadline in the past; setting it unblocks pending I/O.
var aLongTimeAgo = time.Unix(1, 0)

// guardedConn bounds each Read and Write with timeout and aborts all I/O
// once ctx is canceled.
type guardedConn struct {
	net.Conn
	ctx     context.Context
	timeout time.Duration
	stop    func() bool
}

func guard(ctx context.Context, conn net.Conn, timeout time.Duration) *guardedConn {
	g := &guardedConn{Conn: conn, ctx: ctx, timeout: timeout}
	g.stop = context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(aLongTimeAgo)
	})
	return g
}

func (g *guardedConn) arm() {
	if g.timeout > 0 {
		_ = g.Conn.SetDeadline(time.Now().Add(g.timeout))
	}
	// AfterFunc may have fired before the deadline above was set.
	if g.ctx.Err() != nil {
		_ = g.Conn.SetDeadline(aLongTimeAgo)
	}
}

func (g *guardedConn) Read(p []byte) (int, error) {
	g.arm()
	return g.Conn.Read(p)
}

func (g *guardedConn) Write(p []byte) (int, error) {
	g.arm()
	return g.Conn.Write(p)
}

func (g *guardedConn) release() { g.stop() }
