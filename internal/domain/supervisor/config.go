package supervisor

import "time"

// Config tunes process supervision.
type Config struct {
	DefaultPort   int
	PortWindow    int
	StartTimeout  time.Duration
	PollInterval  time.Duration
	RestartSettle time.Duration
	ProbeTimeout  time.Duration
	StopTimeout   time.Duration
	LogTail       int
}

// DefaultConfig returns the standard supervision settings.
func DefaultConfig() Config {
	return Config{
		DefaultPort:   4096,
		PortWindow:    10,
		StartTimeout:  10 * time.Second,
		PollInterval:  200 * time.Millisecond,
		RestartSettle: 200 * time.Millisecond,
		ProbeTimeout:  500 * time.Millisecond,
		StopTimeout:   5 * time.Second,
		LogTail:       20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DefaultPort <= 0 {
		c.DefaultPort = d.DefaultPort
	}
	if c.PortWindow <= 0 {
		c.PortWindow = d.PortWindow
	}
	if c.StartTimeout <= 0 {
		c.StartTimeout = d.StartTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.RestartSettle < 0 {
		c.RestartSettle = d.RestartSettle
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = d.ProbeTimeout
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = d.StopTimeout
	}
	if c.LogTail <= 0 {
		c.LogTail = d.LogTail
	}
	return c
}

// Status is a point-in-time view of the OpenCode server.
type Status struct {
	Running   bool `json:"running"`
	Port      int  `json:"port,omitempty"`
	Installed bool `json:"installed"`
	PID       int  `json:"pid,omitempty"`
	External  bool `json:"external,omitempty"`
	Starting  bool `json:"starting,omitempty"`
}
