package spectate

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gliderlabs/ssh"
	"go.uber.org/zap"
	gossh "golang.org/x/crypto/ssh"
)

const (
	IdleTimeout = 30 * time.Minute
	clearScreen = "\x1b[2J\x1b[H"
)

type Server struct {
	srv  *ssh.Server
	feed *Feed
	log  *zap.Logger
	ln   net.Listener
}

// NewServer prepares an SSH server on addr that shows feed to every
// session. The host key is generated fresh for each run.
func NewServer(addr string, feed *Feed, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{feed: feed, log: log}
	s.srv = &ssh.Server{
		Addr:        addr,
		IdleTimeout: IdleTimeout,
		Handler:     s.handle,
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	signer, err := gossh.NewSignerFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("host key signer: %w", err)
	}
	s.srv.AddHostKey(signer)
	return s, nil
}

// Start binds the address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("spectate listen: %w", err)
	}
	s.ln = ln
	s.log.Info("spectators welcome", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.log.Warn("spectate server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Close() error {
	s.feed.Close()
	return s.srv.Close()
}

func (s *Server) handle(sess ssh.Session) {
	frames, unsubscribe := s.feed.Subscribe()
	defer unsubscribe()
	s.log.Info("spectator joined", zap.String("user", sess.User()), zap.Stringer("remote", sess.RemoteAddr()))
	defer s.log.Info("spectator left", zap.String("user", sess.User()))

	for {
		select {
		case <-sess.Context().Done():
			return
		case frame, ok := <-frames:
			if !ok {
				sess.Exit(0)
				return
			}
			if _, err := io.WriteString(sess, clearScreen+frame); err != nil {
				return
			}
		}
	}
}
