package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/tpkit/client"
	"github.com/danmuck/tpkit/internal/config"
	"github.com/danmuck/tpkit/internal/testutil/hoststub"
	"github.com/danmuck/tpkit/internal/testutil/testlog"
)

func TestRunPluginCreatesStatesAndStopsOnClose(t *testing.T) {
	testlog.Start(t)
	host := hoststub.Start(t)

	cfg := config.DefaultClientFile()
	cfg.PluginID = "tp.run"
	cfg.Host.Address = host.Addr()
	cfg.Reconnect = true
	cfg.States = []config.StateEntry{
		{ID: "tp.run.a", Description: "A", DefaultValue: "0"},
		{ID: "tp.run.b", Description: "B", DefaultValue: "1", ParentGroup: "Run"},
	}

	type result struct {
		term client.Termination
		err  error
	}
	done := make(chan result, 1)
	go func() {
		term, err := runPlugin(context.Background(), cfg)
		done <- result{term, err}
	}()

	host.WaitConn(t, 2*time.Second)
	host.WaitFrames(t, 1, 2*time.Second)
	host.Send(t, `{"type":"info","status":"paired","sdkVersion":6,"tpVersionString":"4.0"}`+"\n")
	types := host.WaitFrameTypes(t, 3, 2*time.Second)
	assert.Equal(t, []string{"pair", "createState", "createState"}, types)
	assert.Empty(t, host.Invalid())

	host.Send(t, `{"type":"closePlugin","pluginId":"tp.run"}`+"\n")
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, client.ReasonClosePlugin, res.term.Reason)
		assert.True(t, res.term.Exit)
	case <-time.After(2 * time.Second):
		t.Fatalf("runPlugin did not return after closePlugin")
	}
}

func TestRunPluginStopsOnContextCancel(t *testing.T) {
	testlog.Start(t)
	host := hoststub.Start(t)

	cfg := config.DefaultClientFile()
	cfg.PluginID = "tp.cancel"
	cfg.Host.Address = host.Addr()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan client.Termination, 1)
	go func() {
		term, _ := runPlugin(ctx, cfg)
		done <- term
	}()
	host.WaitFrames(t, 1, 2*time.Second)
	cancel()

	select {
	case term := <-done:
		assert.Equal(t, client.ReasonLocalClose, term.Reason)
	case <-time.After(2 * time.Second):
		t.Fatalf("runPlugin did not return after cancel")
	}
	host.WaitPeerClosed(t, 2*time.Second)
}

func TestRetryable(t *testing.T) {
	testlog.Start(t)
	assert.True(t, retryable(client.Termination{Reason: client.ReasonPeerClosed}))
	assert.True(t, retryable(client.Termination{Reason: client.ReasonDialFailed}))
	assert.False(t, retryable(client.Termination{Reason: client.ReasonClosePlugin}))
	assert.False(t, retryable(client.Termination{Reason: client.ReasonLocalClose}))
}
