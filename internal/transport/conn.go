package transport

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Conn is one client connection as seen by a Handler.
type Conn struct {
	ID      string
	Network string
	Logger  zerolog.Logger

	raw     net.Conn
	opened  time.Time
	packets atomic.Uint64
	closing atomic.Bool
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// Packets is the number of inbound messages handled so far.
func (c *Conn) Packets() uint64 {
	return c.packets.Load()
}

func (c *Conn) Opened() time.Time {
	return c.opened
}

// CloseAfterReply asks the server to close the connection once the current
// reply has been written.
func (c *Conn) CloseAfterReply() {
	c.closing.Store(true)
}
