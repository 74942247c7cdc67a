package client

import (
	"net/http"
	"time"

	logs "github.com/danmuck/tpkit/internal/logging"
	"github.com/danmuck/tpkit/internal/session"
)

type (
	// LogFunc replaces the default diagnostic output.
	LogFunc = logs.Func
	// SessionConfig tunes the transport.
	SessionConfig = session.Config
	// CustomState is one runtime-created state tracked by the client.
	CustomState = session.CustomState
)

// DefaultSessionConfig returns the fixed loopback endpoint and timeouts.
func DefaultSessionConfig() SessionConfig {
	return session.DefaultConfig()
}

// Config holds client configuration.
type Config struct {
	// PluginID is required here or in ConnectOptions.
	PluginID string

	// UpdateURL, when set, is polled once per connect for a newer version.
	UpdateURL string

	// PluginVersion is the local version compared against UpdateURL.
	PluginVersion string

	// ExitOnClose is reported back through Termination.Exit (default: true).
	ExitOnClose bool

	LogCallback LogFunc
	Session     SessionConfig
	HTTPClient  *http.Client
}

func defaultConfig() Config {
	return Config{
		PluginVersion: "0.0.0",
		ExitOnClose:   true,
		Session:       session.DefaultConfig(),
		HTTPClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Option is a functional option for configuring a Client.
type Option func(*Config)

func WithPluginID(id string) Option {
	return func(c *Config) {
		c.PluginID = id
	}
}

func WithUpdateURL(url string) Option {
	return func(c *Config) {
		c.UpdateURL = url
	}
}

func WithPluginVersion(version string) Option {
	return func(c *Config) {
		c.PluginVersion = version
	}
}

// WithExitOnClose sets whether the embedding process should exit once the
// connection ends. The client only reports the flag.
func WithExitOnClose(exit bool) Option {
	return func(c *Config) {
		c.ExitOnClose = exit
	}
}

func WithLogCallback(fn LogFunc) Option {
	return func(c *Config) {
		c.LogCallback = fn
	}
}

func WithSessionConfig(cfg SessionConfig) Option {
	return func(c *Config) {
		c.Session = cfg
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = hc
	}
}

// ConnectOptions are supplied per Connect call and override Config.
type ConnectOptions struct {
	PluginID  string
	UpdateURL string
}
