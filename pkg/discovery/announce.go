// Package discovery lets hosts advertise themselves on the local network
// and lets peers find them, using UDP broadcast datagrams.
package discovery

import (
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"go.uber.org/zap"
)

const (
	DefaultPort     = 37020
	DefaultTarget   = "255.255.255.255"
	DefaultInterval = time.Second
	DefaultWindow   = 3 * time.Second

	Marker       = "AJEDREZ_SERVER"
	TypeAnnounce = "server_announce"

	maxDatagram = 2048
)

var ErrStarted = errors.New("announcer already started")

// Announcement is the broadcast payload.
type Announcement struct {
	Type   string `json:"type"`
	Marker string `json:"marker"`
	IP     string `json:"ip"`
	Port   int    `json:"port"`
	Name   string `json:"name,omitempty"`
}

func (a Announcement) Encode() ([]byte, error) {
	return json.Marshal(a)
}

// ParseAnnouncement returns false for anything that is not a well formed
// announcement carrying the marker.
func ParseAnnouncement(b []byte) (Announcement, bool) {
	var a Announcement
	if err := json.Unmarshal(b, &a); err != nil {
		return Announcement{}, false
	}
	if a.Type != TypeAnnounce || a.Marker != Marker {
		return Announcement{}, false
	}
	if a.Port <= 0 || a.Port > 65535 || net.ParseIP(a.IP) == nil {
		return Announcement{}, false
	}
	return a, true
}

// LocalIP guesses the address other machines on the LAN reach us at by
// asking the kernel which source address it would route an outbound
// datagram from. No packet is sent.
func LocalIP() string {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && !addr.IP.IsUnspecified() {
		return addr.IP.String()
	}
	return "127.0.0.1"
}

type AnnouncerOption func(*Announcer)

// WithAnnounceTarget sets the destination host of the datagrams.
func WithAnnounceTarget(host string) AnnouncerOption {
	return func(a *Announcer) { a.target = host }
}

func WithAnnouncePort(port int) AnnouncerOption {
	return func(a *Announcer) { a.port = port }
}

func WithInterval(d time.Duration) AnnouncerOption {
	return func(a *Announcer) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithIP overrides the advertised address.
func WithIP(ip string) AnnouncerOption {
	return func(a *Announcer) { a.ip = ip }
}

func WithName(name string) AnnouncerOption {
	return func(a *Announcer) { a.name = name }
}

func WithAnnouncerLogger(l *zap.Logger) AnnouncerOption {
	return func(a *Announcer) {
		if l != nil {
			a.log = l
		}
	}
}

// Announcer broadcasts the host's game port at a fixed interval until
// stopped.
type Announcer struct {
	gamePort int
	target   string
	port     int
	interval time.Duration
	ip       string
	name     string
	log      *zap.Logger

	mu   sync.Mutex
	conn net.PacketConn
	stop chan struct{}
	done chan struct{}
}

func NewAnnouncer(gamePort int, opts ...AnnouncerOption) *Announcer {
	a := &Announcer{
		gamePort: gamePort,
		target:   DefaultTarget,
		port:     DefaultPort,
		interval: DefaultInterval,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.ip == "" {
		a.ip = LocalIP()
	}
	if a.name == "" {
		a.name = petname.Generate(2, "-")
	}
	return a
}

func (a *Announcer) Announcement() Announcement {
	return Announcement{Type: TypeAnnounce, Marker: Marker, IP: a.ip, Port: a.gamePort, Name: a.name}
}

// Start opens the socket and launches the broadcast loop.
func (a *Announcer) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn != nil {
		return ErrStarted
	}

	payload, err := a.Announcement().Encode()
	if err != nil {
		return err
	}
	dst, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(a.target, strconv.Itoa(a.port)))
	if err != nil {
		return err
	}
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return err
	}

	a.conn = conn
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	go a.loop(conn, dst, payload, a.stop, a.done)
	a.log.Info("announcing",
		zap.String("ip", a.ip), zap.Int("port", a.gamePort),
		zap.String("name", a.name), zap.Stringer("to", dst))
	return nil
}

func (a *Announcer) loop(conn net.PacketConn, dst net.Addr, payload []byte, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		if _, err := conn.WriteTo(payload, dst); err != nil {
			a.log.Debug("broadcast failed", zap.Error(err))
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop ends the broadcast loop. Safe to call more than once.
func (a *Announcer) Stop() {
	a.mu.Lock()
	conn, stop, done := a.conn, a.stop, a.done
	a.conn, a.stop, a.done = nil, nil, nil
	a.mu.Unlock()
	if conn == nil {
		return
	}
	close(stop)
	<-done
	conn.Close()
	a.log.Info("announcer stopped")
}
