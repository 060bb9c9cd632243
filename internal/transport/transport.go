// Package transport serves framed messages over TCP or KCP connections.
package transport

import (
	"context"
	"net"
	"time"

	"github.com/danmuck/netmsg/internal/capture"
	"github.com/danmuck/netmsg/internal/protocol"
	"github.com/danmuck/netmsg/internal/protocol/frame"
	"github.com/pkg/errors"
	"github.com/xtaci/kcp-go/v5"
)

const (
	NetworkTCP = "tcp"
	NetworkKCP = "kcp"
)

var (
	ErrUnsupportedNetwork = errors.New("transport: unsupported network")
	ErrServerRunning      = errors.New("transport: server already serving")
)

// Handler consumes one inbound message and may build a reply in out.
// out is reset before every call; an empty out sends nothing.
type Handler interface {
	Handle(ctx context.Context, conn *Conn, in, out *protocol.Message) error
}

type HandlerFunc func(ctx context.Context, conn *Conn, in, out *protocol.Message) error

func (f HandlerFunc) Handle(ctx context.Context, conn *Conn, in, out *protocol.Message) error {
	return f(ctx, conn, in, out)
}

// Recorder receives every frame that crosses a connection. capture.Writer
// satisfies it.
type Recorder interface {
	Record(dir capture.Direction, wire []byte) error
}

type Config struct {
	Network      string
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Limits       frame.Limits
	Mode         protocol.Mode
	Items        protocol.ItemTypes
	Recorder     Recorder
}

func DefaultConfig() Config {
	return Config{
		Network:      NetworkTCP,
		ListenAddr:   "127.0.0.1:7171",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		Limits:       frame.DefaultLimits(),
		Mode:         protocol.ModePermissive,
	}
}

func (c Config) messageOptions() []protocol.Option {
	opts := []protocol.Option{protocol.WithMode(c.Mode)}
	if c.Items != nil {
		opts = append(opts, protocol.WithItemTypes(c.Items))
	}
	return opts
}

func listen(network, addr string) (net.Listener, error) {
	switch network {
	case NetworkTCP:
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, errors.Wrapf(err, "transport: listen tcp %s", addr)
		}
		return ln, nil
	case NetworkKCP:
		ln, err := kcp.ListenWithOptions(addr, nil, 0, 0)
		if err != nil {
			return nil, errors.Wrapf(err, "transport: listen kcp %s", addr)
		}
		return ln, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedNetwork, "%q", network)
	}
}

// tuneKCP sets the session up for byte-stream framing with low latency.
// Both ends must agree on stream mode.
func tuneKCP(sess *kcp.UDPSession) {
	sess.SetStreamMode(true)
	sess.SetWriteDelay(false)
	sess.SetNoDelay(1, 20, 2, 1)
	sess.SetWindowSize(512, 512)
	sess.SetMtu(1400)
}
