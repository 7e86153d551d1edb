package watch

import "time"

// Config tunes the watcher.
type Config struct {
	Debounce       time.Duration
	CacheCeiling   int
	CacheRetention time.Duration
	IgnoredDirs    []string
	IgnorePatterns []string
}

// DefaultIgnoredDirs are directory names never watched or reported.
var DefaultIgnoredDirs = []string{
	"node_modules",
	".git",
	".next",
	"dist",
	"build",
	"__pycache__",
	".cache",
	"out",
}

// DefaultConfig returns the standard watch settings.
func DefaultConfig() Config {
	return Config{
		Debounce:       100 * time.Millisecond,
		CacheCeiling:   100,
		CacheRetention: 5 * time.Second,
		IgnoredDirs:    DefaultIgnoredDirs,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if c.CacheCeiling <= 0 {
		c.CacheCeiling = d.CacheCeiling
	}
	if c.CacheRetention <= 0 {
		c.CacheRetention = d.CacheRetention
	}
	if c.IgnoredDirs == nil {
		c.IgnoredDirs = d.IgnoredDirs
	}
	return c
}

// Status describes the active watch.
type Status struct {
	Active bool   `json:"active"`
	Root   string `json:"root,omitempty"`
	Dirs   int    `json:"dirs,omitempty"`
}
