package discovery

import (
	"context"
	"errors"
	"net"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Host is what a search knows about one announcing address.
type Host struct {
	Port int
	Name string
	Seen time.Time
}

// Results maps each declared address to its latest announcement.
type Results map[string]Host

// Addresses returns the keys in sorted order for stable selection lists.
func (r Results) Addresses() []string {
	out := make([]string, 0, len(r))
	for ip := range r {
		out = append(out, ip)
	}
	sort.Strings(out)
	return out
}

func (r Results) record(a Announcement, seen time.Time) {
	if prev, ok := r[a.IP]; ok && prev.Seen.After(seen) {
		return
	}
	r[a.IP] = Host{Port: a.Port, Name: a.Name, Seen: seen}
}

type searchConfig struct {
	bind   string
	port   int
	window time.Duration
	log    *zap.Logger
}

type SearchOption func(*searchConfig)

func WithSearchPort(port int) SearchOption {
	return func(c *searchConfig) { c.port = port }
}

// WithBindAddress restricts the receiving socket to one interface.
func WithBindAddress(host string) SearchOption {
	return func(c *searchConfig) { c.bind = host }
}

func WithWindow(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.window = d
		}
	}
}

func WithSearchLogger(l *zap.Logger) SearchOption {
	return func(c *searchConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Search listens for announcements until the window elapses or ctx is done
// and returns whatever it collected. Failing to bind yields an empty
// result.
func Search(ctx context.Context, opts ...SearchOption) Results {
	cfg := searchConfig{port: DefaultPort, window: DefaultWindow, log: zap.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}
	results := Results{}

	addr := net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port))
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		cfg.log.Warn("discovery bind failed", zap.String("addr", addr), zap.Error(err))
		return results
	}
	defer conn.Close()

	deadline := time.Now().Add(cfg.window)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return results
	}
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			var ne net.Error
			if !(errors.As(err, &ne) && ne.Timeout()) {
				cfg.log.Debug("discovery read failed", zap.Error(err))
			}
			break
		}
		a, ok := ParseAnnouncement(buf[:n])
		if !ok {
			cfg.log.Debug("ignoring datagram", zap.Stringer("from", from))
			continue
		}
		results.record(a, time.Now())
	}
	cfg.log.Info("discovery finished", zap.Int("hosts", len(results)))
	return results
}
