package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent trail configuration stored as config.toml
// in the .trail/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	Budget      BudgetConfig      `toml:"budget"`
	Watcher     WatcherConfig     `toml:"watcher"`
	Worker      WorkerConfig      `toml:"worker"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Eventstream EventstreamConfig `toml:"eventstream"`
}

// StorageConfig holds session store locations. Empty paths resolve relative
// to the .trail/ directory at startup.
type StorageConfig struct {
	RootDir     string `toml:"root_dir,omitempty"`
	ArchivePath string `toml:"archive_path,omitempty"`
}

// BudgetConfig holds the live token budget.
type BudgetConfig struct {
	TotalTokens uint `toml:"total_tokens,omitempty"`
}

// WatcherConfig holds change watcher settings.
type WatcherConfig struct {
	DebounceMs uint `toml:"debounce_ms,omitempty"`
}

// WorkerConfig sizes the background compaction pool.
type WorkerConfig struct {
	NumWorkers uint `toml:"num_workers,omitempty"`
	QueueSize  uint `toml:"queue_size,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// API server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EventstreamConfig holds settle-event publishing settings. Brokers is a
// comma-separated list of Kafka broker addresses.
type EventstreamConfig struct {
	Enabled bool   `toml:"enabled,omitempty"`
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(get func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *get(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*get(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value: %w", err)
			}
			*get(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.root_dir": {
		get: func(c *Config) string { return c.Storage.RootDir },
		set: func(c *Config, v string) error { c.Storage.RootDir = v; return nil },
	},
	"storage.archive_path": {
		get: func(c *Config) string { return c.Storage.ArchivePath },
		set: func(c *Config, v string) error { c.Storage.ArchivePath = v; return nil },
	},
	"budget.total_tokens": uintKey(func(c *Config) *uint { return &c.Budget.TotalTokens }),
	"watcher.debounce_ms": uintKey(func(c *Config) *uint { return &c.Watcher.DebounceMs }),
	"worker.num_workers":  uintKey(func(c *Config) *uint { return &c.Worker.NumWorkers }),
	"worker.queue_size":   uintKey(func(c *Config) *uint { return &c.Worker.QueueSize }),
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"eventstream.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Eventstream.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for eventstream.enabled: %w", err)
			}
			c.Eventstream.Enabled = b
			return nil
		},
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return c.Eventstream.Brokers },
		set: func(c *Config, v string) error { c.Eventstream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.Eventstream.Topic },
		set: func(c *Config, v string) error { c.Eventstream.Topic = v; return nil },
	},
}
