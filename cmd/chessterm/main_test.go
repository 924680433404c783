package main

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/qnkhuat/chesslan/pkg/config"
)

func TestFlagsOverrideConfig(t *testing.T) {
	cfg := config.Default()
	options{
		port:      9001,
		clock:     3 * time.Minute,
		increment: 2 * time.Second,
		name:      "tidy-wren",
		spectate:  "127.0.0.1:2300",
		redisURL:  "redis://localhost:6379/1",
	}.apply(cfg)

	want := config.Default()
	want.Network.Port = 9001
	want.Clock = config.Clock{Duration: config.Duration(3 * time.Minute), Increment: config.Duration(2 * time.Second)}
	want.Discovery.Name = "tidy-wren"
	want.Spectate = config.Spectate{Enabled: true, Addr: "127.0.0.1:2300"}
	want.Archive.RedisURL = "redis://localhost:6379/1"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyFlagsKeepConfig(t *testing.T) {
	cfg := config.Default()
	options{}.apply(cfg)
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Errorf("config changed (-want +got):\n%s", diff)
	}
}

func TestPlayers(t *testing.T) {
	cfg := config.Default()
	cfg.Discovery.Name = "me"
	tests := []struct {
		o            options
		white, black string
	}{
		{options{host: true}, "me", "guest"},
		{options{join: "10.0.0.2"}, "host", "me"},
		{options{discover: true}, "host", "me"},
		{options{local: true}, "me", "me"},
	}
	for _, tt := range tests {
		w, b := players(tt.o, cfg)
		if w != tt.white || b != tt.black {
			t.Errorf("players(%+v) = %s, %s; want %s, %s", tt.o, w, b, tt.white, tt.black)
		}
	}
}
