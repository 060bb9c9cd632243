package transport

import (
	"context"
	"net"
	"time"

	"github.com/danmuck/netmsg/internal/protocol"
	"github.com/danmuck/netmsg/internal/protocol/frame"
	"github.com/pkg/errors"
	"github.com/xtaci/kcp-go/v5"
)

// Client is the dialing side of a framed connection. It is not safe for
// concurrent Send or concurrent Receive.
type Client struct {
	conn    net.Conn
	network string
	limits  frame.Limits
}

// Dial connects to addr. TCP dials honor ctx fully; KCP sessions are
// connectionless, so ctx is only checked before the session is created.
func Dial(ctx context.Context, network, addr string) (*Client, error) {
	var (
		conn net.Conn
		err  error
	)
	switch network {
	case NetworkTCP:
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	case NetworkKCP:
		if err = ctx.Err(); err != nil {
			break
		}
		var sess *kcp.UDPSession
		sess, err = kcp.DialWithOptions(addr, nil, 0, 0)
		if err == nil {
			tuneKCP(sess)
			conn = sess
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedNetwork, "%q", network)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "transport: dial %s %s", network, addr)
	}
	return &Client{conn: conn, network: network, limits: frame.DefaultLimits()}, nil
}

func (c *Client) Network() string {
	return c.network
}

func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Send writes m as one frame. The write is abandoned when ctx is done.
func (c *Client) Send(ctx context.Context, m *protocol.Message) error {
	stop := c.bind(ctx)
	err := frame.WriteMessage(c.conn, m, c.limits)
	return c.unbind(ctx, stop, err, "send")
}

// Receive reads the next frame into m. The read is abandoned when ctx is done.
func (c *Client) Receive(ctx context.Context, m *protocol.Message) error {
	stop := c.bind(ctx)
	err := frame.ReadMessage(c.conn, m, c.limits)
	return c.unbind(ctx, stop, err, "receive")
}

// bind applies the ctx deadline and arranges for cancellation to expire
// the pending I/O.
func (c *Client) bind(ctx context.Context) func() bool {
	deadline, _ := ctx.Deadline()
	_ = c.conn.SetDeadline(deadline)
	return context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
}

func (c *Client) unbind(ctx context.Context, stop func() bool, err error, op string) error {
	stop()
	if err != nil && ctx.Err() != nil {
		return errors.Wrapf(ctx.Err(), "transport: %s", op)
	}
	return err
}

// Request sends req and reads the reply into resp.
func (c *Client) Request(ctx context.Context, req, resp *protocol.Message) error {
	if err := c.Send(ctx, req); err != nil {
		return err
	}
	return c.Receive(ctx, resp)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// ReceiveTimeout is Receive with a relative deadline.
func (c *Client) ReceiveTimeout(m *protocol.Message, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Receive(ctx, m)
}
