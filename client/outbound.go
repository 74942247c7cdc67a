package client

import (
	"fmt"
	"time"

	"github.com/danmuck/tpkit/internal/observability"
	"github.com/danmuck/tpkit/protocol"
)

// sendableLocked reports ErrNotConnected or ErrNotPaired. c.mu must be held.
func (c *Client) sendableLocked() error {
	switch {
	case c.state == StateConnecting:
		return ErrNotPaired
	case c.state != StateConnected || c.conn == nil:
		return fmt.Errorf("%w: state=%s", ErrNotConnected, c.state)
	}
	return nil
}

// whileSendable runs fn with c.mu held, only if the connection accepts
// sends. finish leaves Connected before it resets the registry, so registry
// changes made in fn never outlive the connection. fn must not take c.mu.
func (c *Client) whileSendable(fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendableLocked(); err != nil {
		return err
	}
	fn()
	return nil
}

func (c *Client) currentBuilder() protocol.Builder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builder
}

// write encodes msgs and sends them as one transport write.
func (c *Client) write(msgs ...protocol.Message) error {
	payload, err := protocol.EncodeBatch(msgs...)
	if err != nil {
		return err
	}
	types := make([]string, len(msgs))
	for i, m := range msgs {
		types[i] = m.MsgType()
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	conn, state, pluginID, log := c.conn, c.state, c.builder.PluginID, c.log
	c.mu.Unlock()
	if state != StateConnected || conn == nil {
		return fmt.Errorf("%w: state=%s", ErrNotConnected, state)
	}

	start := time.Now()
	_ = conn.SetWriteDeadline(start.Add(c.cfg.Session.WriteTimeout))
	_, err = conn.Write(payload)
	observability.RecordWrite(pluginID, types, time.Since(start), err == nil)
	if err != nil {
		log.Errf("client.write failed messages=%d bytes=%d err=%v", len(msgs), len(payload), err)
		c.fail(err)
		return fmt.Errorf("%w: write: %v", ErrTransport, err)
	}
	log.Debugf("client.write messages=%d bytes=%d", len(msgs), len(payload))
	return nil
}

func (c *Client) syncStateGauge() {
	observability.SetCustomStates(c.PluginID(), c.states.Len())
}

// CreateState registers and creates one custom state. An id already created
// on this connection fails with ErrDuplicateState and nothing is sent.
// parentGroup may be empty.
func (c *Client) CreateState(id, description, defaultValue, parentGroup string) error {
	msg, err := c.currentBuilder().CreateState(protocol.StateSpec{
		ID:           id,
		Description:  description,
		DefaultValue: defaultValue,
		ParentGroup:  parentGroup,
	})
	if err != nil {
		return err
	}
	var addErr error
	if err := c.whileSendable(func() {
		addErr = c.states.Add(CustomState{ID: id, Description: description})
	}); err != nil {
		return err
	}
	if addErr != nil {
		c.logger().Errf("createState: %v", addErr)
		return fmt.Errorf("createState: %w", addErr)
	}
	c.syncStateGauge()
	return c.write(msg)
}

// CreateStateMany creates every state not already created, in one write.
// Already-created ids are logged and skipped. When nothing is left to send
// it returns nil without writing.
func (c *Client) CreateStateMany(specs []protocol.StateSpec) error {
	msgs, err := c.currentBuilder().CreateStates(specs)
	if err != nil {
		return err
	}
	records := make([]CustomState, len(specs))
	for i, s := range specs {
		records[i] = CustomState{ID: s.ID, Description: s.Description}
	}
	var added []CustomState
	var skipped []string
	if err := c.whileSendable(func() {
		added, skipped = c.states.AddMany(records)
	}); err != nil {
		return err
	}
	log := c.logger()
	for _, id := range skipped {
		log.Warnf("createStateMany: custom state id=%q already created, skipping", id)
	}
	if len(added) == 0 {
		return nil
	}
	c.syncStateGauge()

	pending := make(map[string]int, len(added))
	for _, s := range added {
		pending[s.ID]++
	}
	out := make([]protocol.Message, 0, len(added))
	for _, m := range msgs {
		if pending[m.ID] == 0 {
			continue
		}
		pending[m.ID]--
		out = append(out, m)
	}
	return c.write(out...)
}

// RemoveState removes a state created on this connection. Unknown ids fail
// with ErrUnknownState and nothing is sent.
func (c *Client) RemoveState(id string) error {
	msg, err := c.currentBuilder().RemoveState(id)
	if err != nil {
		return err
	}
	var removeErr error
	if err := c.whileSendable(func() { removeErr = c.states.Remove(id) }); err != nil {
		return err
	}
	if removeErr != nil {
		c.logger().Errf("removeState: %v", removeErr)
		return fmt.Errorf("removeState: %w", removeErr)
	}
	c.syncStateGauge()
	return c.write(msg)
}

// RemoveStateMany removes all ids in one write, or none of them.
func (c *Client) RemoveStateMany(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: removeStateMany", protocol.ErrEmptyBatch)
	}
	b := c.currentBuilder()
	msgs := make([]protocol.Message, 0, len(ids))
	for i, id := range ids {
		msg, err := b.RemoveState(id)
		if err != nil {
			return fmt.Errorf("removeStateMany[%d]: %w", i, err)
		}
		msgs = append(msgs, msg)
	}
	var removeErr error
	if err := c.whileSendable(func() { removeErr = c.states.RemoveMany(ids) }); err != nil {
		return err
	}
	if removeErr != nil {
		c.logger().Errf("removeStateMany: %v", removeErr)
		return fmt.Errorf("removeStateMany: %w", removeErr)
	}
	c.syncStateGauge()
	return c.write(msgs...)
}

func (c *Client) StateUpdate(id, value string) error {
	msg, err := c.currentBuilder().StateUpdate(id, value)
	if err != nil {
		return err
	}
	return c.write(msg)
}

// StateUpdateMany sends every update in one write.
func (c *Client) StateUpdateMany(values []protocol.StateValue) error {
	msgs, err := c.currentBuilder().StateUpdates(values)
	if err != nil {
		return err
	}
	return c.write(toMessages(msgs)...)
}

func (c *Client) ChoiceUpdate(id string, values []string) error {
	msg, err := c.currentBuilder().ChoiceUpdate(id, values)
	if err != nil {
		return err
	}
	return c.write(msg)
}

// ChoiceUpdateSpecific updates the choice list of a single action instance.
func (c *Client) ChoiceUpdateSpecific(id string, values []string, instanceID string) error {
	msg, err := c.currentBuilder().ChoiceUpdateSpecific(id, values, instanceID)
	if err != nil {
		return err
	}
	return c.write(msg)
}

func (c *Client) SettingUpdate(name, value string) error {
	msg, err := c.currentBuilder().SettingUpdate(name, value)
	if err != nil {
		return err
	}
	return c.write(msg)
}

// ConnectorUpdate sets a connector to value (0..100). With isShortID the id
// is a host-assigned short id and data is ignored.
func (c *Client) ConnectorUpdate(id, value string, data []protocol.DataItem, isShortID bool) error {
	msg, err := c.currentBuilder().ConnectorUpdate(id, value, data, isShortID)
	if err != nil {
		return err
	}
	return c.write(msg)
}

func (c *Client) ConnectorUpdateMany(conns []protocol.Connector) error {
	msgs, err := c.currentBuilder().ConnectorUpdates(conns)
	if err != nil {
		return err
	}
	return c.write(toMessages(msgs)...)
}

func (c *Client) UpdateActionData(instanceID string, data protocol.ActionData) error {
	msg, err := c.currentBuilder().UpdateActionData(instanceID, data)
	if err != nil {
		return err
	}
	return c.write(msg)
}

func (c *Client) SendNotification(notificationID, title, msg string, options []protocol.NotificationOption) error {
	m, err := c.currentBuilder().Notification(notificationID, title, msg, options)
	if err != nil {
		return err
	}
	return c.write(m)
}

// Send writes an arbitrary message. Use the typed methods where one exists;
// Send does no validation and does not touch the state registry.
func (c *Client) Send(msg protocol.Message) error {
	if msg == nil {
		return fmt.Errorf("%w: send nil message", protocol.ErrMalformedMessage)
	}
	return c.write(msg)
}

// SendBatch writes msgs as one transport write.
func (c *Client) SendBatch(msgs ...protocol.Message) error {
	for i, m := range msgs {
		if m == nil {
			return fmt.Errorf("%w: sendBatch[%d] nil message", protocol.ErrMalformedMessage, i)
		}
	}
	return c.write(msgs...)
}

func toMessages[T protocol.Message](in []T) []protocol.Message {
	out := make([]protocol.Message, len(in))
	for i, m := range in {
		out[i] = m
	}
	return out
}
