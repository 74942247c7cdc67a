package session

import (
	"strings"
	"time"
)

// DefaultAddress is the fixed loopback endpoint the host listens on.
const DefaultAddress = "127.0.0.1:12136"

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines transport defaults for the host connection.
type Config struct {
	Address         string
	ConnectTimeout  time.Duration
	WriteTimeout    time.Duration
	ReadBufferBytes int
	Backoff         BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Address:         DefaultAddress,
		ConnectTimeout:  5 * time.Second,
		WriteTimeout:    15 * time.Second,
		ReadBufferBytes: 32 * 1024,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.Address) == "" {
		c.Address = def.Address
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ReadBufferBytes <= 0 {
		c.ReadBufferBytes = def.ReadBufferBytes
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}
