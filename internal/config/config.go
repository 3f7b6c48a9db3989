package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized on top of the YAML file. The retail
// hosting setup only ever tuned these two, so they override whatever the
// file says.
const (
	EnvPort        = "PORT"
	EnvIdleTimeout = "IDLE_TIMEOUT_MS"
)

// Relay holds all configuration for the lobby relay server.
type Relay struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Session timing
	GreetingDelay time.Duration `yaml:"greeting_delay"` // pause before the snapshot, absorbs port scanners
	IdleTimeout   time.Duration `yaml:"idle_timeout"`   // inbound silence allowed before disconnect
	ReapInterval  time.Duration `yaml:"reap_interval"`  // how often idle sessions are checked

	// Keep-alive cadence
	LobbyPingInterval  time.Duration `yaml:"lobby_ping_interval"`
	BattlePingInterval time.Duration `yaml:"battle_ping_interval"`
	BattlePingTimeout  time.Duration `yaml:"battle_ping_timeout"`

	// Write queue / timeouts
	WriteTimeout  time.Duration `yaml:"write_timeout"`   // per-write deadline
	SendQueueSize int           `yaml:"send_queue_size"` // per-client outbox capacity

	// Logging
	LogLevel string `yaml:"log_level"`

	// Lobby content
	Map          Map      `yaml:"map"`
	WelcomeLines []string `yaml:"welcome_lines"`
}

// Map overrides the built-in Armageddon scenario descriptor. Empty fields
// keep their built-in values.
type Map struct {
	Type        string `yaml:"type"`         // single map class character
	PlayerCount string `yaml:"player_count"` // single ASCII digit
	Filename    string `yaml:"filename"`
	DisplayName string `yaml:"display_name"`
}

// DefaultRelay returns Relay config with the timings the retail client was
// built against. The ping cadences are part of the protocol contract rather
// than tuning knobs; they are configurable mostly for tests.
func DefaultRelay() Relay {
	return Relay{
		BindAddress:        "0.0.0.0",
		Port:               8888,
		GreetingDelay:      2 * time.Second,
		IdleTimeout:        5 * time.Second,
		ReapInterval:       10 * time.Second,
		LobbyPingInterval:  300 * time.Millisecond,
		BattlePingInterval: 33 * time.Millisecond,
		BattlePingTimeout:  5 * time.Second,
		WriteTimeout:       5 * time.Second,
		SendQueueSize:      256,
		LogLevel:           "info",
		WelcomeLines: []string{
			"Welcome to the Dark Colony battle server",
			"Pick a race and a color, then press Ready",
			"The battle starts once every player is ready",
		},
	}
}

// LoadRelay loads relay config from a YAML file and applies environment
// overrides. If the file doesn't exist, returns defaults.
func LoadRelay(path string) (Relay, error) {
	cfg := DefaultRelay()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.applyEnv()
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, cfg.applyEnv()
}

func (c *Relay) applyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s=%q: %w", EnvPort, v, err)
		}
		c.Port = port
	}
	if v := os.Getenv(EnvIdleTimeout); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s=%q: %w", EnvIdleTimeout, v, err)
		}
		c.IdleTimeout = time.Duration(ms) * time.Millisecond
	}
	return nil
}
