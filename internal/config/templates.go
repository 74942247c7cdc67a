package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "client":
		return clientTemplate, nil
	case "minimal":
		return minimalTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const clientTemplate = `plugin_id = "tp.example.plugin"
plugin_version = "1.0.0"
update_url = ""
exit_on_close = true
reconnect = false

[host]
address = "127.0.0.1:12136"
connect_timeout = "5s"
write_timeout = "15s"

[admin]
enabled = true
addr = "127.0.0.1:7030"
cors_origins = ["http://localhost:3000"]
token = ""

[log]
level = "info"
json = false

[[states]]
id = "tp.example.state.status"
description = "Example status"
default_value = "idle"
parent_group = "Example"
`

const minimalTemplate = `plugin_id = "tp.example.plugin"
`
