package model

// Config represents the postdeck configuration file.
// Stored at ./postdeck.toml or ~/.config/postdeck/config.toml.
// Schema changes require a version bump. See internal/version/version.go.
type Config struct {
	Schema  string        `toml:"postdeck_schema"`
	Server  ServerConfig  `toml:"server"`
	Search  SearchConfig  `toml:"search"`
	Session SessionConfig `toml:"session"`
	Seed    SeedConfig    `toml:"seed"`
	Log     LogConfig     `toml:"log"`
}

type ServerConfig struct {
	Port        int  `toml:"port"`
	OpenBrowser bool `toml:"open_browser"`
}

type SearchConfig struct {
	DebounceMillis int `toml:"debounce_ms"`
}

type SessionConfig struct {
	TTLMinutes int `toml:"ttl_minutes"`
}

// SeedConfig points at an external seed dataset.
// An empty Path means the embedded default dataset.
type SeedConfig struct {
	Path  string `toml:"path,omitempty"`
	Watch bool   `toml:"watch"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

const (
	DefaultPort           = 3000
	DefaultDebounceMillis = 1000
	DefaultTTLMinutes     = 120
	DefaultLogLevel       = "info"
)

// DefaultConfig returns a config with every field at its default.
func DefaultConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: DefaultPort, OpenBrowser: true},
		Search:  SearchConfig{DebounceMillis: DefaultDebounceMillis},
		Session: SessionConfig{TTLMinutes: DefaultTTLMinutes},
		Log:     LogConfig{Level: DefaultLogLevel, Pretty: true},
	}
}

// ApplyDefaults fills zero-valued numeric and string fields with defaults.
// Booleans are left alone since false is a meaningful setting.
func (c *Config) ApplyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = DefaultPort
	}
	if c.Search.DebounceMillis <= 0 {
		c.Search.DebounceMillis = DefaultDebounceMillis
	}
	if c.Session.TTLMinutes <= 0 {
		c.Session.TTLMinutes = DefaultTTLMinutes
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
