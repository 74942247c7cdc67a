package client

import (
	"sync"

	"github.com/danmuck/tpkit/internal/observability"
	"github.com/danmuck/tpkit/protocol"
	"github.com/danmuck/tpkit/protocol/frame"
	"github.com/danmuck/tpkit/protocol/schema"
)

// chunkQueue hands raw reads from the reader goroutine to the dispatcher.
// It is unbounded so a slow listener never stalls the socket.
type chunkQueue struct {
	mu     sync.Mutex
	chunks [][]byte
	closed bool
	err    error
	ready  chan struct{}
}

func newChunkQueue() *chunkQueue {
	return &chunkQueue{ready: make(chan struct{}, 1)}
}

func (q *chunkQueue) push(chunk []byte) {
	q.mu.Lock()
	q.chunks = append(q.chunks, chunk)
	q.mu.Unlock()
	q.signal()
}

func (q *chunkQueue) close(err error) {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.err = err
	}
	q.mu.Unlock()
	q.signal()
}

func (q *chunkQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// next blocks until chunks are queued or the stream ended. It reports done
// only after every queued chunk was returned.
func (q *chunkQueue) next() (chunks [][]byte, done bool, err error) {
	for {
		q.mu.Lock()
		if len(q.chunks) > 0 {
			chunks = q.chunks
			q.chunks = nil
			q.mu.Unlock()
			return chunks, false, nil
		}
		if q.closed {
			err = q.err
			q.mu.Unlock()
			return nil, true, err
		}
		q.mu.Unlock()
		<-q.ready
	}
}

func (c *Client) dispatchLoop(queue *chunkQueue) {
	dec := frame.NewDecoder()
	for {
		chunks, done, err := queue.next()
		if done {
			if pending := dec.Pending(); pending > 0 {
				c.logger().Debugf("client.dispatch dropping partial frame bytes=%d", pending)
			}
			c.transportEnded(err)
			return
		}
		for _, chunk := range chunks {
			frames := dec.Push(chunk)
			if len(frames) == 0 {
				continue
			}
			observability.RecordFrames(c.PluginID(), len(frames))
			for _, f := range frames {
				c.handleFrame(f)
			}
		}
	}
}

func (c *Client) handleFrame(f []byte) {
	log := c.logger()
	pluginID := c.PluginID()
	msg, err := protocol.Decode(f)
	if err != nil {
		log.Warnf("client.dispatch skipping malformed frame bytes=%d err=%v", len(f), err)
		observability.RecordMalformed(pluginID)
		return
	}
	label := msg.MsgType()
	if !schema.IsInbound(label) {
		label = "unknown"
	}
	observability.RecordInbound(pluginID, label)
	c.dispatch(msg)
}

// dispatch routes one decoded message to its event. It runs on the dispatch
// goroutine only.
func (c *Client) dispatch(msg protocol.Inbound) {
	log := c.logger()
	switch m := msg.(type) {
	case protocol.ClosePlugin:
		if m.PluginID != c.PluginID() {
			log.Debugf("client.dispatch ignoring closePlugin for plugin=%q", m.PluginID)
			return
		}
		log.Warnf("Received Close Plugin message")
		c.ev.close.emit(log, "close", m)
		c.shutdown(ReasonClosePlugin, nil)
	case protocol.Info:
		log.Infof("Received info message tpVersion=%q sdkVersion=%d", m.TPVersionString, m.SDKVersion)
		c.ev.info.emit(log, "info", m)
		if m.Settings != nil {
			c.ev.settings.emit(log, "settings", m.Settings)
		}
	case protocol.Settings:
		c.ev.settings.emit(log, "settings", m.Values)
	case protocol.NotificationOptionClicked:
		c.ev.notificationClicked.emit(log, "notificationClicked", m)
	case protocol.ListChange:
		c.ev.listChange.emit(log, "listChange", m)
	case protocol.Action:
		c.ev.action.emit(log, "action", ActionEvent{Message: m, Held: heldFor(m.Type)})
	case protocol.Broadcast:
		c.ev.broadcast.emit(log, "broadcast", m)
	case protocol.ShortConnectorIDNotification:
		c.ev.shortID.emit(log, "connectorShortIdNotification", m)
	case protocol.ConnectorChange:
		c.ev.connectorChange.emit(log, "connectorChange", m)
	case protocol.Unknown:
		c.ev.message.emit(log, "message", m)
	default:
		log.Warnf("client.dispatch unhandled message type=%q", msg.MsgType())
	}
}

func heldFor(msgType string) HeldState {
	switch msgType {
	case schema.TypeUp:
		return HeldUp
	case schema.TypeDown:
		return HeldDown
	default:
		return HeldNone
	}
}
