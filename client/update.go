package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const updateCheckTimeout = 15 * time.Second

var ErrInvalidVersion = errors.New("client: invalid version")

type remoteVersion struct {
	Version string `json:"version"`
}

// CheckForUpdate fetches url and compares its "version" field with current.
// It returns the remote version and whether it is strictly newer.
func CheckForUpdate(ctx context.Context, hc *http.Client, url, current string) (string, bool, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, fmt.Errorf("update check: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("update check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", false, fmt.Errorf("update check: unexpected status %d", resp.StatusCode)
	}

	var body remoteVersion
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", false, fmt.Errorf("update check: decode: %w", err)
	}
	remote := strings.TrimSpace(body.Version)
	if remote == "" {
		return "", false, fmt.Errorf("%w: remote version missing", ErrInvalidVersion)
	}
	newer, err := NewerVersion(remote, current)
	if err != nil {
		return remote, false, err
	}
	return remote, newer, nil
}

// NewerVersion reports whether remote is a strictly greater semantic version
// than current. A leading "v" is optional on both.
func NewerVersion(remote, current string) (bool, error) {
	r, ok := canonicalVersion(remote)
	if !ok {
		return false, fmt.Errorf("%w: remote=%q", ErrInvalidVersion, remote)
	}
	c, ok := canonicalVersion(current)
	if !ok {
		return false, fmt.Errorf("%w: current=%q", ErrInvalidVersion, current)
	}
	return semver.Compare(r, c) > 0, nil
}

func canonicalVersion(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", false
	}
	return v, true
}

// checkForUpdate runs once per connect on its own goroutine. Failures are
// logged and never reach the connection.
func (c *Client) checkForUpdate(url string) {
	ctx, cancel := context.WithTimeout(c.runCtx, updateCheckTimeout)
	defer cancel()

	log := c.logger()
	current := c.cfg.PluginVersion
	remote, newer, err := CheckForUpdate(ctx, c.cfg.HTTPClient, url, current)
	if err != nil {
		log.Errf("client.checkForUpdate url=%q err=%v", url, err)
		return
	}
	if !newer {
		log.Debugf("client.checkForUpdate up to date current=%q remote=%q", current, remote)
		return
	}
	log.Infof("Plugin update available current=%q remote=%q", current, remote)
	c.ev.update.emit(log, "update", UpdateEvent{Current: current, Remote: remote})
}
