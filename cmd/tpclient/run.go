package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/danmuck/tpkit/client"
	"github.com/danmuck/tpkit/internal/config"
	logs "github.com/danmuck/tpkit/internal/logging"
	"github.com/danmuck/tpkit/internal/observability"
	"github.com/danmuck/tpkit/internal/session"
	"github.com/danmuck/tpkit/protocol"
)

// currentClient holds the live connection for the admin server.
type currentClient struct {
	ptr atomic.Pointer[client.Client]
}

func (h *currentClient) Load() *client.Client   { return h.ptr.Load() }
func (h *currentClient) Store(c *client.Client) { h.ptr.Store(c) }

// runPlugin connects and, when reconnect is set, reconnects with backoff
// until the host closes the plugin, ctx ends or a connect fails for a
// non-transport reason.
func runPlugin(ctx context.Context, cfg config.ClientFile) (client.Termination, error) {
	sessCfg, err := sessionConfig(cfg.Host)
	if err != nil {
		return client.Termination{}, err
	}
	observability.RegisterMetrics()

	holder := &currentClient{}
	if cfg.Admin.Enabled {
		admin := newAdminServer(cfg.Admin, holder)
		go func() {
			if err := admin.ListenAndServe(); err != nil {
				logs.Errf("tpclient.admin serve failed addr=%q err=%v", cfg.Admin.Addr, err)
			}
		}()
		defer admin.Shutdown()
	}

	backoff := session.NewBackoff(sessCfg.Backoff)
	for {
		c := newPluginClient(cfg, sessCfg)
		holder.Store(c)

		err := c.Connect(ctx, client.ConnectOptions{})
		switch {
		case err == nil:
			backoff.Reset()
		case errors.Is(err, client.ErrTransport):
			logs.Warnf("tpclient.run connect failed addr=%q err=%v", sessCfg.Address, err)
		default:
			return client.Termination{}, fmt.Errorf("connect: %w", err)
		}

		var term client.Termination
		select {
		case <-c.Done():
			term = c.Wait()
		case <-ctx.Done():
			_ = c.Close()
			term = c.Wait()
			return term, ctx.Err()
		}

		if !cfg.Reconnect || !retryable(term) {
			return term, nil
		}
		logs.Warnf("tpclient.run reconnecting reason=%s attempt=%d", term.Reason, backoff.Attempt()+1)
		if err := backoff.Wait(ctx); err != nil {
			return term, err
		}
	}
}

func retryable(term client.Termination) bool {
	switch term.Reason {
	case client.ReasonPeerClosed, client.ReasonSocketError, client.ReasonDialFailed:
		return true
	default:
		return false
	}
}

func newPluginClient(cfg config.ClientFile, sessCfg client.SessionConfig) *client.Client {
	c := client.New(
		client.WithPluginID(cfg.PluginID),
		client.WithPluginVersion(cfg.PluginVersion),
		client.WithUpdateURL(cfg.UpdateURL),
		client.WithExitOnClose(cfg.ExitOnClose),
		client.WithSessionConfig(sessCfg),
	)
	specs := stateSpecs(cfg.States)

	c.OnInfo(func(m protocol.Info) {
		logs.Infof("tpclient.info status=%q tp=%q sdk=%d plugin_version=%d", m.Status, m.TPVersionString, m.SDKVersion, m.PluginVersion)
		if len(specs) == 0 {
			return
		}
		if err := c.CreateStateMany(specs); err != nil {
			logs.Errf("tpclient.info create states failed err=%v", err)
		}
	})
	c.OnSettings(func(values []map[string]any) {
		logs.Infof("tpclient.settings entries=%d", len(values))
	})
	c.OnAction(func(ev client.ActionEvent) {
		logs.Infof("tpclient.action id=%q held=%s data=%d", ev.Message.ActionID, ev.Held, len(ev.Message.Data))
	})
	c.OnListChange(func(m protocol.ListChange) {
		logs.Infof("tpclient.listChange action=%q list=%q value=%q", m.ActionID, m.ListID, m.Value)
	})
	c.OnConnectorChange(func(m protocol.ConnectorChange) {
		logs.Infof("tpclient.connectorChange id=%q value=%d", m.ConnectorID, m.Value)
	})
	c.OnConnectorShortIDNotification(func(m protocol.ShortConnectorIDNotification) {
		logs.Debugf("tpclient.shortId connector=%q short=%q", m.ConnectorID, m.ShortID)
	})
	c.OnBroadcast(func(m protocol.Broadcast) {
		logs.Debugf("tpclient.broadcast event=%q page=%q", m.Event, m.PageName)
	})
	c.OnNotificationClicked(func(m protocol.NotificationOptionClicked) {
		logs.Infof("tpclient.notification id=%q option=%q", m.NotificationID, m.OptionID)
	})
	c.OnMessage(func(m protocol.Unknown) {
		logs.Debugf("tpclient.message type=%q bytes=%d", m.Type, len(m.Raw()))
	})
	c.OnUpdate(func(ev client.UpdateEvent) {
		logs.Warnf("tpclient.update available current=%q remote=%q", ev.Current, ev.Remote)
	})
	c.OnDisconnected(func(ev client.DisconnectEvent) {
		logs.Infof("tpclient.disconnected error=%t", ev.HadError)
	})
	return c
}
