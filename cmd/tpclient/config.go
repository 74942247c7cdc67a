package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/tpkit/client"
	"github.com/danmuck/tpkit/internal/config"
	"github.com/danmuck/tpkit/protocol"
)

// loadRunConfig overlays the keys defined in path onto the defaults. An
// empty path yields the defaults.
func loadRunConfig(path string) (config.ClientFile, error) {
	cfg := config.DefaultClientFile()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw config.ClientFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.ClientFile{}, fmt.Errorf("load tpclient config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config.ClientFile{}, fmt.Errorf("load tpclient config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("plugin_id") {
		cfg.PluginID = strings.TrimSpace(raw.PluginID)
	}
	if meta.IsDefined("plugin_version") {
		cfg.PluginVersion = strings.TrimSpace(raw.PluginVersion)
	}
	if meta.IsDefined("update_url") {
		cfg.UpdateURL = strings.TrimSpace(raw.UpdateURL)
	}
	if meta.IsDefined("exit_on_close") {
		cfg.ExitOnClose = raw.ExitOnClose
	}
	if meta.IsDefined("reconnect") {
		cfg.Reconnect = raw.Reconnect
	}
	if meta.IsDefined("host", "address") {
		cfg.Host.Address = strings.TrimSpace(raw.Host.Address)
	}
	if meta.IsDefined("host", "connect_timeout") {
		cfg.Host.ConnectTimeout = strings.TrimSpace(raw.Host.ConnectTimeout)
	}
	if meta.IsDefined("host", "write_timeout") {
		cfg.Host.WriteTimeout = strings.TrimSpace(raw.Host.WriteTimeout)
	}
	if meta.IsDefined("admin", "enabled") {
		cfg.Admin.Enabled = raw.Admin.Enabled
	}
	if meta.IsDefined("admin", "addr") {
		cfg.Admin.Addr = strings.TrimSpace(raw.Admin.Addr)
	}
	if meta.IsDefined("admin", "cors_origins") {
		cfg.Admin.CorsOrigins = normalizeOrigins(raw.Admin.CorsOrigins)
	}
	if meta.IsDefined("admin", "token") {
		cfg.Admin.Token = strings.TrimSpace(raw.Admin.Token)
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "json") {
		cfg.Log.JSON = raw.Log.JSON
	}
	if meta.IsDefined("states") {
		cfg.States = raw.States
	}
	return cfg, nil
}

// sessionConfig converts the [host] table into client transport settings.
func sessionConfig(host config.HostConfig) (client.SessionConfig, error) {
	cfg := client.DefaultSessionConfig()
	if v := strings.TrimSpace(host.Address); v != "" {
		cfg.Address = v
	}
	if v := strings.TrimSpace(host.ConnectTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return client.SessionConfig{}, fmt.Errorf("parse host.connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}
	if v := strings.TrimSpace(host.WriteTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return client.SessionConfig{}, fmt.Errorf("parse host.write_timeout: %w", err)
		}
		cfg.WriteTimeout = d
	}
	return cfg, nil
}

func stateSpecs(entries []config.StateEntry) []protocol.StateSpec {
	out := make([]protocol.StateSpec, 0, len(entries))
	for _, e := range entries {
		out = append(out, protocol.StateSpec{
			ID:           strings.TrimSpace(e.ID),
			Description:  e.Description,
			DefaultValue: e.DefaultValue,
			ParentGroup:  e.ParentGroup,
		})
	}
	return out
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
