package transport

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/netmsg/internal/capture"
	"github.com/danmuck/netmsg/internal/observability"
	"github.com/danmuck/netmsg/internal/protocol"
	"github.com/danmuck/netmsg/internal/protocol/frame"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xtaci/kcp-go/v5"
)

type Server struct {
	cfg     Config
	handler Handler
	logger  zerolog.Logger

	serving atomic.Bool
	addr    atomic.Value

	connsMu sync.Mutex
	conns   map[*Conn]struct{}
	wg      sync.WaitGroup
}

func NewServer(cfg Config, handler Handler) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  log.Logger.With().Str("component", "transport").Logger(),
		conns:   make(map[*Conn]struct{}),
	}
}

// Listen opens the listener named by the configured network and address.
func (s *Server) Listen() (net.Listener, error) {
	return listen(s.cfg.Network, s.cfg.ListenAddr)
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or ln fails. It closes
// every tracked connection and waits for their goroutines before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.serving.CompareAndSwap(false, true) {
		return ErrServerRunning
	}
	defer s.serving.Store(false)
	defer ln.Close()
	s.addr.Store(ln.Addr())
	defer s.wg.Wait()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = ln.Close()
		s.closeAllConns()
	}()

	s.logger.Info().
		Str("network", s.cfg.Network).
		Str("addr", ln.Addr().String()).
		Str("mode", s.cfg.Mode.String()).
		Msg("transport.Serve listening")

	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return errors.Wrap(err, "transport: accept")
		}
		if sess, ok := raw.(*kcp.UDPSession); ok {
			tuneKCP(sess)
		}
		conn := s.newConn(raw)
		s.trackConn(conn)
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

// Ready reports whether Serve is accepting connections.
func (s *Server) Ready() bool {
	return s.serving.Load()
}

// Addr is the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	addr, _ := s.addr.Load().(net.Addr)
	return addr
}

func (s *Server) ConnCount() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

func (s *Server) newConn(raw net.Conn) *Conn {
	id := uuid.NewString()
	return &Conn{
		ID:      id,
		Network: s.cfg.Network,
		Logger:  observability.ConnLogger(s.logger, id, s.cfg.Network, raw.RemoteAddr().String()),
		raw:     raw,
		opened:  time.Now(),
	}
}

func (s *Server) handleConn(ctx context.Context, conn *Conn) {
	defer s.wg.Done()
	defer s.untrackConn(conn)
	defer conn.raw.Close()
	release := observability.TrackConnection(s.cfg.Network)
	defer release()

	conn.Logger.Debug().Msg("transport.handleConn opened")
	in := protocol.NewMessage(s.cfg.messageOptions()...)
	out := protocol.NewMessage(s.cfg.messageOptions()...)

	for ctx.Err() == nil {
		if s.cfg.ReadTimeout > 0 {
			_ = conn.raw.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		if err := frame.ReadMessage(conn.raw, in, s.cfg.Limits); err != nil {
			s.logReadEnd(ctx, conn, err)
			return
		}
		conn.packets.Add(1)
		observability.RecordFrame(s.cfg.Network, observability.DirectionIn, in.Length())
		s.record(conn, capture.Inbound, in)

		out.Reset()
		err := s.handler.Handle(ctx, conn, in, out)
		if err == nil {
			err = out.Err()
		}
		if err != nil {
			observability.RecordCodecError(protocol.ErrorKind(err))
			conn.Logger.Warn().Err(err).Uint64("packet", conn.Packets()).Msg("transport.handleConn handler failed")
			if s.cfg.Mode == protocol.ModeStrict {
				return
			}
			continue
		}

		if out.Length() > 0 {
			if s.cfg.WriteTimeout > 0 {
				_ = conn.raw.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			}
			if err := frame.WriteMessage(conn.raw, out, s.cfg.Limits); err != nil {
				conn.Logger.Warn().Err(err).Msg("transport.handleConn write failed")
				return
			}
			observability.RecordFrame(s.cfg.Network, observability.DirectionOut, out.Length())
			s.record(conn, capture.Outbound, out)
		}
		if conn.closing.Load() {
			conn.Logger.Debug().Msg("transport.handleConn closed by handler")
			return
		}
	}
}

func (s *Server) logReadEnd(ctx context.Context, conn *Conn, err error) {
	switch {
	case err == io.EOF, ctx.Err() != nil, errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		conn.Logger.Debug().Uint64("packets", conn.Packets()).Msg("transport.handleConn closed")
	case errors.Is(err, frame.ErrPayloadTooLarge):
		observability.RecordCodecError("limit_exceeded")
		conn.Logger.Warn().Err(err).Msg("transport.handleConn oversized frame")
	default:
		conn.Logger.Warn().Err(err).Msg("transport.handleConn read failed")
	}
}

// record tees the wire bytes of m; the frame header is already stamped.
func (s *Server) record(conn *Conn, dir capture.Direction, m *protocol.Message) {
	if s.cfg.Recorder == nil {
		return
	}
	wire := m.Buffer()[:protocol.HeaderLength+m.Length()]
	if err := s.cfg.Recorder.Record(dir, wire); err != nil {
		conn.Logger.Warn().Err(err).Str("direction", dir.String()).Msg("transport.record failed")
	}
}

func (s *Server) trackConn(conn *Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn *Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.raw.Close()
	}
}
