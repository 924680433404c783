package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func freeUDPPort(t *testing.T) int {
	t.Helper()
	c, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	return c.LocalAddr().(*net.UDPAddr).Port
}

func TestAnnouncementPayload(t *testing.T) {
	a := NewAnnouncer(8080, WithIP("192.168.1.20"), WithName("brave-otter"))
	b, err := a.Announcement().Encode()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"server_announce","marker":"AJEDREZ_SERVER","ip":"192.168.1.20","port":8080,"name":"brave-otter"}`
	if diff := cmp.Diff(want, string(b)); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnouncerDefaultsName(t *testing.T) {
	a := NewAnnouncer(8080, WithIP("10.0.0.1"))
	if a.Announcement().Name == "" {
		t.Error("announcer has no display name")
	}
}

func TestParseAnnouncement(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"valid", `{"type":"server_announce","marker":"AJEDREZ_SERVER","ip":"10.0.0.2","port":8080}`, true},
		{"foreign marker", `{"type":"server_announce","marker":"OTHER","ip":"10.0.0.2","port":8080}`, false},
		{"wrong type", `{"type":"hello","marker":"AJEDREZ_SERVER","ip":"10.0.0.2","port":8080}`, false},
		{"bad ip", `{"type":"server_announce","marker":"AJEDREZ_SERVER","ip":"nope","port":8080}`, false},
		{"bad port", `{"type":"server_announce","marker":"AJEDREZ_SERVER","ip":"10.0.0.2","port":0}`, false},
		{"not json", `SSDP NOTIFY`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ParseAnnouncement([]byte(tt.in)); ok != tt.ok {
				t.Errorf("ParseAnnouncement(%s) ok = %v, want %v", tt.in, ok, tt.ok)
			}
		})
	}
}

func TestResultsNewestWins(t *testing.T) {
	r := Results{}
	now := time.Now()
	r.record(Announcement{IP: "10.0.0.3", Port: 9000}, now)
	r.record(Announcement{IP: "10.0.0.3", Port: 9001}, now.Add(-time.Second))
	r.record(Announcement{IP: "10.0.0.1", Port: 8080}, now)
	r.record(Announcement{IP: "10.0.0.3", Port: 9002}, now.Add(time.Second))

	if got := r["10.0.0.3"].Port; got != 9002 {
		t.Errorf("port = %d, want 9002", got)
	}
	if diff := cmp.Diff([]string{"10.0.0.1", "10.0.0.3"}, r.Addresses()); diff != "" {
		t.Errorf("addresses mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchFindsAnnouncer(t *testing.T) {
	port := freeUDPPort(t)
	a := NewAnnouncer(8123,
		WithAnnounceTarget("127.0.0.1"), WithAnnouncePort(port),
		WithInterval(50*time.Millisecond), WithIP("192.168.7.7"), WithName("quiet-heron"))
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	defer a.Stop()
	if err := a.Start(); err != ErrStarted {
		t.Errorf("second Start error = %v, want ErrStarted", err)
	}

	got := Search(context.Background(),
		WithBindAddress("127.0.0.1"), WithSearchPort(port), WithWindow(500*time.Millisecond))

	want := Results{"192.168.7.7": {Port: 8123, Name: "quiet-heron"}}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Host{}, "Seen")); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchTimesOutEmpty(t *testing.T) {
	port := freeUDPPort(t)
	start := time.Now()
	got := Search(context.Background(),
		WithBindAddress("127.0.0.1"), WithSearchPort(port), WithWindow(100*time.Millisecond))
	if len(got) != 0 {
		t.Errorf("results = %v, want empty", got)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("search overran its window")
	}
}

func TestSearchHonoursContext(t *testing.T) {
	port := freeUDPPort(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	Search(ctx, WithBindAddress("127.0.0.1"), WithSearchPort(port), WithWindow(10*time.Second))
	if time.Since(start) > 5*time.Second {
		t.Error("search ignored cancellation")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	a := NewAnnouncer(8080, WithAnnounceTarget("127.0.0.1"), WithAnnouncePort(freeUDPPort(t)), WithIP("10.0.0.1"))
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	a.Stop()
	a.Stop()
}
