// Package config loads settings from an optional YAML file and CHESSLAN_*
// environment variables, in that order, on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

// Duration reads YAML values such as "1s" or "250ms".
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

type Network struct {
	Port           int      `yaml:"port"`
	BindAddress    string   `yaml:"bind_address"`
	PollInterval   Duration `yaml:"poll_interval"`
	CloseWait      Duration `yaml:"close_wait"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	AcceptTimeout  Duration `yaml:"accept_timeout"`
}

type Discovery struct {
	Port     int      `yaml:"port"`
	Target   string   `yaml:"target"`
	Interval Duration `yaml:"interval"`
	Window   Duration `yaml:"window"`
	IP       string   `yaml:"ip"`
	Name     string   `yaml:"name"`
}

// Clock with a zero Duration means untimed games.
type Clock struct {
	Duration  Duration `yaml:"duration"`
	Increment Duration `yaml:"increment"`
}

type Spectate struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type Archive struct {
	RedisURL string   `yaml:"redis_url"`
	TTL      Duration `yaml:"ttl"`
}

type Log struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
	Caller  bool   `yaml:"caller"`
}

type Config struct {
	Network   Network   `yaml:"network"`
	Discovery Discovery `yaml:"discovery"`
	Clock     Clock     `yaml:"clock"`
	Spectate  Spectate  `yaml:"spectate"`
	Archive   Archive   `yaml:"archive"`
	Log       Log       `yaml:"log"`
}

func Default() *Config {
	return &Config{
		Network: Network{
			Port:           8080,
			BindAddress:    "0.0.0.0",
			PollInterval:   Duration(100 * time.Millisecond),
			CloseWait:      Duration(2 * time.Second),
			ConnectTimeout: Duration(5 * time.Second),
			AcceptTimeout:  Duration(time.Second),
		},
		Discovery: Discovery{
			Port:     37020,
			Target:   "255.255.255.255",
			Interval: Duration(time.Second),
			Window:   Duration(3 * time.Second),
		},
		Spectate: Spectate{Addr: ":2222"},
		Archive:  Archive{TTL: Duration(30 * 24 * time.Hour)},
		Log: Log{
			Level:  "info",
			Format: "legacy",
			File:   "chesslan.log",
		},
	}
}

// Load returns the defaults overlaid with the file at path (skipped when
// path is empty) and then with the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"CHESSLAN_BIND":             &c.Network.BindAddress,
		"CHESSLAN_DISCOVERY_TARGET": &c.Discovery.Target,
		"CHESSLAN_IP":               &c.Discovery.IP,
		"CHESSLAN_NAME":             &c.Discovery.Name,
		"CHESSLAN_SPECTATE_ADDR":    &c.Spectate.Addr,
		"CHESSLAN_REDIS_URL":        &c.Archive.RedisURL,
		"CHESSLAN_LOG_LEVEL":        &c.Log.Level,
		"CHESSLAN_LOG_FORMAT":       &c.Log.Format,
		"CHESSLAN_LOG_FILE":         &c.Log.File,
	}
	for k, p := range strs {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			*p = v
		}
	}

	ints := map[string]*int{
		"CHESSLAN_PORT":           &c.Network.Port,
		"CHESSLAN_DISCOVERY_PORT": &c.Discovery.Port,
	}
	for k, p := range ints {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s=%q", ErrInvalid, k, v)
			}
			*p = n
		}
	}

	durs := map[string]*Duration{
		"CHESSLAN_CLOCK":     &c.Clock.Duration,
		"CHESSLAN_INCREMENT": &c.Clock.Increment,
	}
	for k, p := range durs {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%w: %s=%q", ErrInvalid, k, v)
			}
			*p = Duration(d)
		}
	}

	bools := map[string]*bool{
		"CHESSLAN_SPECTATE":    &c.Spectate.Enabled,
		"CHESSLAN_LOG_CONSOLE": &c.Log.Console,
	}
	for k, p := range bools {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s=%q", ErrInvalid, k, v)
			}
			*p = b
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Network.Port < 0 || c.Network.Port > 65535 {
		return fmt.Errorf("%w: game port %d", ErrInvalid, c.Network.Port)
	}
	if c.Discovery.Port <= 0 || c.Discovery.Port > 65535 {
		return fmt.Errorf("%w: discovery port %d", ErrInvalid, c.Discovery.Port)
	}
	if c.Discovery.Port == c.Network.Port {
		return fmt.Errorf("%w: game and discovery share port %d", ErrInvalid, c.Network.Port)
	}
	if c.Network.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalid)
	}
	if c.Clock.Duration < 0 || c.Clock.Increment < 0 {
		return fmt.Errorf("%w: negative clock", ErrInvalid)
	}
	switch strings.ToLower(c.Log.Format) {
	case "legacy", "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}
