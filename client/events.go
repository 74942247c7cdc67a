package client

import (
	"sync"

	logs "github.com/danmuck/tpkit/internal/logging"
	"github.com/danmuck/tpkit/protocol"
)

// HeldState tells which trigger produced an Action event.
type HeldState int

const (
	// HeldNone is a plain "action" trigger.
	HeldNone HeldState = iota
	// HeldUp is an "up" trigger: the button was released.
	HeldUp
	// HeldDown is a "down" trigger: the button is being held.
	HeldDown
)

func (h HeldState) String() string {
	switch h {
	case HeldUp:
		return "up"
	case HeldDown:
		return "down"
	default:
		return "none"
	}
}

// Held reports the held flag and whether the trigger carries one at all.
func (h HeldState) Held() (held bool, ok bool) {
	switch h {
	case HeldUp:
		return false, true
	case HeldDown:
		return true, true
	default:
		return false, false
	}
}

type ActionEvent struct {
	Message protocol.Action
	Held    HeldState
}

// DisconnectEvent is emitted once when the connection ends for any reason.
type DisconnectEvent struct {
	HadError bool
	Err      error
}

type UpdateEvent struct {
	Current string
	Remote  string
}

// listeners is an ordered callback list for one event.
type listeners[T any] struct {
	mu  sync.RWMutex
	fns []func(T)
}

func (l *listeners[T]) add(fn func(T)) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = append(l.fns, fn)
}

// emit calls every listener in registration order on the calling goroutine.
// A panicking listener is logged and does not stop the others.
func (l *listeners[T]) emit(log logs.Logger, name string, v T) {
	l.mu.RLock()
	fns := l.fns
	l.mu.RUnlock()
	for _, fn := range fns {
		call(log, name, fn, v)
	}
}

func call[T any](log logs.Logger, name string, fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			log.Errf("client.emit listener panic event=%s err=%v", name, r)
		}
	}()
	fn(v)
}

type events struct {
	connected           listeners[struct{}]
	disconnected        listeners[DisconnectEvent]
	socketError         listeners[error]
	close               listeners[protocol.ClosePlugin]
	info                listeners[protocol.Info]
	settings            listeners[[]map[string]any]
	notificationClicked listeners[protocol.NotificationOptionClicked]
	listChange          listeners[protocol.ListChange]
	action              listeners[ActionEvent]
	broadcast           listeners[protocol.Broadcast]
	shortID             listeners[protocol.ShortConnectorIDNotification]
	connectorChange     listeners[protocol.ConnectorChange]
	message             listeners[protocol.Unknown]
	update              listeners[UpdateEvent]
}

func (c *Client) OnConnected(fn func()) {
	if fn == nil {
		return
	}
	c.ev.connected.add(func(struct{}) { fn() })
}

func (c *Client) OnDisconnected(fn func(DisconnectEvent)) { c.ev.disconnected.add(fn) }
func (c *Client) OnSocketError(fn func(error))            { c.ev.socketError.add(fn) }
func (c *Client) OnClose(fn func(protocol.ClosePlugin))   { c.ev.close.add(fn) }
func (c *Client) OnInfo(fn func(protocol.Info))           { c.ev.info.add(fn) }

// OnSettings receives the settings list from info and settings messages.
func (c *Client) OnSettings(fn func([]map[string]any)) { c.ev.settings.add(fn) }

func (c *Client) OnNotificationClicked(fn func(protocol.NotificationOptionClicked)) {
	c.ev.notificationClicked.add(fn)
}

func (c *Client) OnListChange(fn func(protocol.ListChange)) { c.ev.listChange.add(fn) }
func (c *Client) OnAction(fn func(ActionEvent))            { c.ev.action.add(fn) }
func (c *Client) OnBroadcast(fn func(protocol.Broadcast))  { c.ev.broadcast.add(fn) }

func (c *Client) OnConnectorShortIDNotification(fn func(protocol.ShortConnectorIDNotification)) {
	c.ev.shortID.add(fn)
}

func (c *Client) OnConnectorChange(fn func(protocol.ConnectorChange)) { c.ev.connectorChange.add(fn) }

// OnMessage receives every message whose type has no dedicated event.
func (c *Client) OnMessage(fn func(protocol.Unknown)) { c.ev.message.add(fn) }

func (c *Client) OnUpdate(fn func(UpdateEvent)) { c.ev.update.add(fn) }
