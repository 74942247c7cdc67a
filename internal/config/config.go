package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultHostAddress = "127.0.0.1:12136"
	DefaultAdminAddr   = "127.0.0.1:7030"
)

// ClientFile is the on-disk schema for tpclient.
type ClientFile struct {
	PluginID      string       `toml:"plugin_id"`
	PluginVersion string       `toml:"plugin_version"`
	UpdateURL     string       `toml:"update_url"`
	ExitOnClose   bool         `toml:"exit_on_close"`
	Reconnect     bool         `toml:"reconnect"`
	Host          HostConfig   `toml:"host"`
	Admin         AdminConfig  `toml:"admin"`
	Log           LogConfig    `toml:"log"`
	States        []StateEntry `toml:"states"`
}

type HostConfig struct {
	Address        string `toml:"address"`
	ConnectTimeout string `toml:"connect_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
}

type AdminConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	// Token, when set, is required as a bearer token on /states and /metrics.
	Token string `toml:"token"`
}

type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// StateEntry is a custom state created once the host sends info.
type StateEntry struct {
	ID           string `toml:"id"`
	Description  string `toml:"description"`
	DefaultValue string `toml:"default_value"`
	ParentGroup  string `toml:"parent_group"`
}

func DefaultClientFile() ClientFile {
	return ClientFile{
		PluginVersion: "0.0.0",
		ExitOnClose:   true,
		Host: HostConfig{
			Address:        DefaultHostAddress,
			ConnectTimeout: "5s",
			WriteTimeout:   "15s",
		},
		Admin: AdminConfig{
			Addr: DefaultAdminAddr,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadClientConfig strictly decodes path over the defaults and validates it.
// Unknown keys are rejected.
func LoadClientConfig(path string) (ClientFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientFile{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg := DefaultClientFile()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return ClientFile{}, fmt.Errorf("config parse failed (%s): %s", path, strict.String())
		}
		return ClientFile{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := ValidateClientFile(cfg); err != nil {
		return ClientFile{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func ValidateClientFile(cfg ClientFile) error {
	if strings.TrimSpace(cfg.PluginID) == "" {
		return fmt.Errorf("plugin_id is required")
	}
	if err := validateHostPort("host.address", cfg.Host.Address); err != nil {
		return err
	}
	for _, d := range []struct{ key, raw string }{
		{"host.connect_timeout", cfg.Host.ConnectTimeout},
		{"host.write_timeout", cfg.Host.WriteTimeout},
	} {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		if v <= 0 {
			return fmt.Errorf("%s must be positive", d.key)
		}
	}
	if u := strings.TrimSpace(cfg.UpdateURL); u != "" {
		parsed, err := url.Parse(u)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("update_url must be an absolute http(s) url")
		}
	}
	if cfg.Admin.Enabled {
		if err := validateHostPort("admin.addr", cfg.Admin.Addr); err != nil {
			return err
		}
	}
	seen := make(map[string]struct{}, len(cfg.States))
	for i, s := range cfg.States {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return fmt.Errorf("states[%d]: id is required", i)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("states[%d]: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validateHostPort(key, addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
