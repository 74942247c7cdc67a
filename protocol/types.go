package protocol

import (
	"encoding/json"

	"github.com/danmuck/tpkit/protocol/schema"
)

// ConnectorPrefix starts every long-form connector id.
const ConnectorPrefix = "pc"

// Message is any protocol message carrying a type discriminator.
type Message interface {
	MsgType() string
}

// Inbound is a decoded host message. Raw returns the frame it came from.
type Inbound interface {
	Message
	Raw() json.RawMessage
}

type rawFrame struct {
	raw json.RawMessage
}

func (r rawFrame) Raw() json.RawMessage { return r.raw }

func (r *rawFrame) setRaw(b []byte) { r.raw = json.RawMessage(b) }

// DataItem is one id/value pair attached to actions and connectors.
type DataItem struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// ClosePlugin asks the plugin addressed by PluginID to shut down.
type ClosePlugin struct {
	rawFrame
	Type     string `json:"type"`
	PluginID string `json:"pluginId"`
}

func (m ClosePlugin) MsgType() string { return schema.TypeClosePlugin }

// Info is the host's reply to pairing.
type Info struct {
	rawFrame
	Type            string           `json:"type"`
	Status          string           `json:"status"`
	SDKVersion      int              `json:"sdkVersion"`
	TPVersionString string           `json:"tpVersionString"`
	TPVersionCode   int              `json:"tpVersionCode"`
	PluginVersion   int              `json:"pluginVersion"`
	Settings        []map[string]any `json:"settings,omitempty"`
}

func (m Info) MsgType() string { return schema.TypeInfo }

// Settings carries the plugin settings after the user edits them.
type Settings struct {
	rawFrame
	Type   string           `json:"type"`
	Values []map[string]any `json:"values"`
}

func (m Settings) MsgType() string { return schema.TypeSettings }

type NotificationOptionClicked struct {
	rawFrame
	Type           string `json:"type"`
	NotificationID string `json:"notificationId"`
	OptionID       string `json:"optionId"`
}

func (m NotificationOptionClicked) MsgType() string { return schema.TypeNotificationOptionClicked }

type ListChange struct {
	rawFrame
	Type       string `json:"type"`
	PluginID   string `json:"pluginId"`
	ActionID   string `json:"actionId"`
	ListID     string `json:"listId"`
	InstanceID string `json:"instanceId"`
	Value      string `json:"value"`
}

func (m ListChange) MsgType() string { return schema.TypeListChange }

// Action is an action trigger; Type is one of "action", "up" or "down".
type Action struct {
	rawFrame
	Type     string     `json:"type"`
	PluginID string     `json:"pluginId"`
	ActionID string     `json:"actionId"`
	Data     []DataItem `json:"data"`
}

func (m Action) MsgType() string { return m.Type }

type Broadcast struct {
	rawFrame
	Type     string `json:"type"`
	Event    string `json:"event"`
	PageName string `json:"pageName"`
}

func (m Broadcast) MsgType() string { return schema.TypeBroadcast }

// ShortConnectorIDNotification maps a long connector id onto a host-assigned short id.
type ShortConnectorIDNotification struct {
	rawFrame
	Type        string `json:"type"`
	PluginID    string `json:"pluginId"`
	ShortID     string `json:"shortId"`
	ConnectorID string `json:"connectorId"`
}

func (m ShortConnectorIDNotification) MsgType() string { return schema.TypeShortConnectorIDNotice }

type ConnectorChange struct {
	rawFrame
	Type        string     `json:"type"`
	PluginID    string     `json:"pluginId"`
	ConnectorID string     `json:"connectorId"`
	Value       int        `json:"value"`
	Data        []DataItem `json:"data"`
}

func (m ConnectorChange) MsgType() string { return schema.TypeConnectorChange }

// Unknown holds any message whose type this package does not model.
type Unknown struct {
	rawFrame
	Type string
}

func (m Unknown) MsgType() string { return m.Type }

// Fields decodes the raw payload as a generic object.
func (m Unknown) Fields() (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(m.raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
