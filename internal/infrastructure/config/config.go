package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. WRITER_SERVER_PORT.
const Prefix = "WRITER"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Terminal  TerminalConfig
	Process   ProcessConfig
	Watch     WatchConfig
	Events    EventsConfig
}

// ServerConfig holds HTTP server configuration. The backend only listens on
// loopback by default since the UI runs on the same machine.
type ServerConfig struct {
	Port            string        `split_words:"true" default:"8787"`
	Host            string        `split_words:"true" default:"127.0.0.1"`
	ShutdownTimeout time.Duration `split_words:"true" default:"5s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `split_words:"true" default:"info"`
	Development bool   `split_words:"true" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `split_words:"true" default:"200"`
	Burst             int  `split_words:"true" default:"400"`
	Enabled           bool `split_words:"true" default:"true"`
}

// TerminalConfig holds PTY session defaults.
type TerminalConfig struct {
	DefaultCols uint16 `split_words:"true" default:"80"`
	DefaultRows uint16 `split_words:"true" default:"24"`
	ReadChunk   int    `split_words:"true" default:"4096"`
	// ExitGrace bounds how long the reader waits for the exit status after
	// end-of-stream before reporting -1.
	ExitGrace time.Duration `split_words:"true" default:"2s"`
	// HangupGrace is how long Kill waits after SIGHUP before killing the
	// whole session.
	HangupGrace time.Duration `split_words:"true" default:"250ms"`
}

// ProcessConfig holds supervisor settings for the assistant tool server.
type ProcessConfig struct {
	DefaultPort   int           `split_words:"true" default:"4096"`
	PortWindow    int           `split_words:"true" default:"10"`
	StartTimeout  time.Duration `split_words:"true" default:"10s"`
	PollInterval  time.Duration `split_words:"true" default:"200ms"`
	RestartSettle time.Duration `split_words:"true" default:"200ms"`
	ProbeTimeout  time.Duration `split_words:"true" default:"500ms"`
	StopTimeout   time.Duration `split_words:"true" default:"5s"`
	LogTail       int           `split_words:"true" default:"20"`
}

// WatchConfig holds filesystem watch settings.
type WatchConfig struct {
	Debounce       time.Duration `split_words:"true" default:"100ms"`
	CacheCeiling   int           `split_words:"true" default:"100"`
	CacheRetention time.Duration `split_words:"true" default:"5s"`
	IgnoredDirs    []string      `split_words:"true" default:"node_modules,.git,.next,dist,build,__pycache__,.cache,out"`
	IgnorePatterns []string      `split_words:"true"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `split_words:"true" default:"256"`
}

// Load loads configuration from WRITER_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects settings the managers cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Process.DefaultPort <= 0 || c.Process.DefaultPort > 65535:
		return fmt.Errorf("process default port out of range: %d", c.Process.DefaultPort)
	case c.Process.PortWindow <= 0:
		return fmt.Errorf("process port window must be positive: %d", c.Process.PortWindow)
	case c.Process.DefaultPort+c.Process.PortWindow-1 > 65535:
		return fmt.Errorf("process port window exceeds 65535")
	case c.Process.PollInterval <= 0 || c.Process.StartTimeout < c.Process.PollInterval:
		return fmt.Errorf("process start timeout %s must be at least the poll interval %s",
			c.Process.StartTimeout, c.Process.PollInterval)
	case c.Watch.CacheCeiling <= 0:
		return fmt.Errorf("watch cache ceiling must be positive: %d", c.Watch.CacheCeiling)
	case c.Watch.Debounce < 0 || c.Watch.CacheRetention < c.Watch.Debounce:
		return fmt.Errorf("watch cache retention %s must cover the debounce window %s",
			c.Watch.CacheRetention, c.Watch.Debounce)
	case c.Terminal.ReadChunk <= 0:
		return fmt.Errorf("terminal read chunk must be positive: %d", c.Terminal.ReadChunk)
	case c.Events.BufferSize <= 0:
		return fmt.Errorf("event buffer size must be positive: %d", c.Events.BufferSize)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8787",
			Host:            "127.0.0.1",
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 200,
			Burst:             400,
			Enabled:           true,
		},
		Terminal: TerminalConfig{
			DefaultCols: 80,
			DefaultRows: 24,
			ReadChunk:   4096,
			ExitGrace:   2 * time.Second,
			HangupGrace: 250 * time.Millisecond,
		},
		Process: ProcessConfig{
			DefaultPort:   4096,
			PortWindow:    10,
			StartTimeout:  10 * time.Second,
			PollInterval:  200 * time.Millisecond,
			RestartSettle: 200 * time.Millisecond,
			ProbeTimeout:  500 * time.Millisecond,
			StopTimeout:   5 * time.Second,
			LogTail:       20,
		},
		Watch: WatchConfig{
			Debounce:       100 * time.Millisecond,
			CacheCeiling:   100,
			CacheRetention: 5 * time.Second,
			IgnoredDirs: []string{
				"node_modules", ".git", ".next", "dist", "build", "__pycache__", ".cache", "out",
			},
		},
		Events: EventsConfig{
			BufferSize: 256,
		},
	}
}
