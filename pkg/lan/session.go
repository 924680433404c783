// Package lan keeps two instances of a game in step over a single TCP
// connection. The host listens and plays White; the peer dials in and plays
// Black. Moves are exchanged as line-delimited JSON.
package lan

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/qnkhuat/chesslan/pkg/game"
)

const (
	DefaultPort         = 8080
	DefaultPollInterval = 100 * time.Millisecond
	DefaultCloseWait    = 2 * time.Second
	WriteTimeout        = 5 * time.Second

	readBufferSize = 1024
	maxLineSize    = 64 * 1024
)

type Role int

const (
	Host Role = iota
	Peer
)

func (r Role) String() string {
	if r == Host {
		return "host"
	}
	return "peer"
}

// Color is the side a role plays.
func (r Role) Color() game.Color {
	if r == Host {
		return game.White
	}
	return game.Black
}

type Option func(*Session)

func WithPort(port int) Option { return func(s *Session) { s.port = port } }

// WithBindAddress sets the interface the host listens on. Default is all.
func WithBindAddress(host string) Option { return func(s *Session) { s.bindHost = host } }

func WithPollInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.poll = d
		}
	}
}

func WithCloseWait(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.closeWait = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

type Session struct {
	role      Role
	port      int
	bindHost  string
	poll      time.Duration
	closeWait time.Duration
	log       *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conn     net.Conn
	done     chan struct{}
	writeMu  sync.Mutex

	connected atomic.Bool
	stopping  atomic.Bool

	pending pendingMove
}

func newSession(role Role, opts []Option) *Session {
	s := &Session{
		role:      role,
		port:      DefaultPort,
		poll:      DefaultPollInterval,
		closeWait: DefaultCloseWait,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(zap.String("role", role.String()))
	return s
}

func NewHost(opts ...Option) *Session { return newSession(Host, opts) }
func NewPeer(opts ...Option) *Session { return newSession(Peer, opts) }

func (s *Session) Role() Role        { return s.role }
func (s *Session) Color() game.Color { return s.role.Color() }

// Connected reports whether the link is up. The driver polls it every
// iteration; it turns false on a clean close by the remote side, on any
// transport error and after Close.
func (s *Session) Connected() bool { return s.connected.Load() }

// Addr is the host's listening address, empty before Start.
func (s *Session) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the game port. Host only.
func (s *Session) Start() bool {
	if s.role != Host || s.stopping.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return true
	}
	addr := net.JoinHostPort(s.bindHost, strconv.Itoa(s.port))
	l, err := net.Listen("tcp", addr)
	if err != nil {
		s.log.Warn("listen failed", zap.String("addr", addr), zap.Error(err))
		return false
	}
	s.listener = l
	s.log.Info("listening", zap.String("addr", l.Addr().String()))
	return true
}

// AwaitPeer blocks for up to timeout (forever when timeout <= 0) for one
// inbound connection. A timeout leaves the listener usable for a retry.
func (s *Session) AwaitPeer(timeout time.Duration) bool {
	if s.role != Host || s.stopping.Load() || s.connected.Load() {
		return false
	}
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l == nil {
		return false
	}

	tl, _ := l.(*net.TCPListener)
	if tl != nil {
		var deadline time.Time
		if timeout > 0 {
			deadline = time.Now().Add(timeout)
		}
		_ = tl.SetDeadline(deadline)
		defer tl.SetDeadline(time.Time{})
	}

	conn, err := l.Accept()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			s.log.Debug("no peer yet", zap.Duration("timeout", timeout))
		} else if !s.stopping.Load() {
			s.log.Warn("accept failed", zap.Error(err))
		}
		return false
	}
	if s.stopping.Load() {
		conn.Close()
		return false
	}
	s.attach(conn)
	return true
}

// Connect dials the host. address may omit the port, in which case the
// configured game port is used. Peer only.
func (s *Session) Connect(address string, timeout time.Duration) bool {
	if s.role != Peer || s.stopping.Load() || s.connected.Load() {
		return false
	}
	address = s.withPort(address)
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		s.log.Warn("connect failed", zap.String("addr", address), zap.Error(err))
		return false
	}
	s.attach(conn)
	return true
}

func (s *Session) withPort(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	return net.JoinHostPort(address, strconv.Itoa(s.port))
}

func (s *Session) attach(conn net.Conn) {
	s.mu.Lock()
	prev, prevDone := s.conn, s.done
	s.mu.Unlock()
	if prev != nil {
		prev.Close()
		s.wait(prevDone)
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.conn, s.done = conn, done
	s.mu.Unlock()
	s.connected.Store(true)
	s.log.Info("connected", zap.Stringer("remote", conn.RemoteAddr()))

	go s.listen(conn, done)
}

// PendingMove takes the most recent move received from the remote side,
// if any arrived since the last call.
func (s *Session) PendingMove() (game.Move, bool) {
	return s.pending.take()
}

// SendMove transmits a move. Any transport error marks the session
// disconnected.
func (s *Session) SendMove(from, to game.Coord) bool {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil || !s.connected.Load() {
		return false
	}

	b, err := Encode(MessageMove{Origin: from, Destination: to})
	if err != nil {
		return false
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(WriteTimeout)); err == nil {
		_, err = conn.Write(b)
		if err == nil {
			s.log.Debug("sent move", zap.Stringer("from", from), zap.Stringer("to", to))
			return true
		}
		s.log.Warn("send failed", zap.Error(err))
	} else {
		s.log.Warn("send failed", zap.Error(err))
	}
	s.connected.Store(false)
	return false
}

// Close releases the connection and listener and waits a bounded time for
// the listener goroutine. Safe to call more than once.
func (s *Session) Close() {
	if !s.stopping.CompareAndSwap(false, true) {
		return
	}
	s.connected.Store(false)

	s.mu.Lock()
	conn, l, done := s.conn, s.listener, s.done
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if l != nil {
		l.Close()
	}
	s.wait(done)
	s.log.Info("closed")
}

func (s *Session) wait(done chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(s.closeWait):
		s.log.Warn("listener did not stop in time", zap.Duration("wait", s.closeWait))
	}
}

type readResult int

const (
	readData readResult = iota
	readTimeout
	readClosed
	readFailed
)

// read performs one poll-style read bounded by the poll interval.
func (s *Session) read(conn net.Conn, p []byte) (readResult, int, error) {
	if err := conn.SetReadDeadline(time.Now().Add(s.poll)); err != nil {
		return readFailed, 0, err
	}
	n, err := conn.Read(p)
	if n > 0 {
		return readData, n, nil
	}
	if err == nil {
		return readTimeout, 0, nil
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return readTimeout, 0, nil
	}
	if errors.Is(err, io.EOF) {
		return readClosed, 0, err
	}
	return readFailed, 0, err
}

func (s *Session) listen(conn net.Conn, done chan struct{}) {
	defer close(done)

	var buf bytes.Buffer
	chunk := make([]byte, readBufferSize)
	for !s.stopping.Load() {
		res, n, err := s.read(conn, chunk)
		switch res {
		case readTimeout:
			continue
		case readClosed:
			s.log.Info("remote closed the connection")
			s.connected.Store(false)
			return
		case readFailed:
			if !s.stopping.Load() {
				s.log.Warn("read failed", zap.Error(err))
			}
			s.connected.Store(false)
			return
		}

		buf.Write(chunk[:n])
		s.drain(&buf)
		if buf.Len() > maxLineSize {
			s.log.Debug("discarding oversized line", zap.Int("size", buf.Len()))
			buf.Reset()
		}
	}
}

func (s *Session) drain(buf *bytes.Buffer) {
	for {
		i := bytes.IndexByte(buf.Bytes(), '\n')
		if i < 0 {
			return
		}
		line := bytes.TrimSpace(buf.Next(i + 1))
		if len(line) == 0 {
			continue
		}
		msg, err := Decode(line)
		if err != nil {
			s.log.Debug("discarding message", zap.ByteString("line", line), zap.Error(err))
			continue
		}
		switch m := msg.(type) {
		case MessageMove:
			s.log.Debug("received move", zap.Stringer("move", m.Move()))
			s.pending.store(m.Move())
		}
	}
}
