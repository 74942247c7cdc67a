package protocol

import "github.com/danmuck/tpkit/protocol/schema"

// Pair identifies this connection to the host.
type Pair struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (m Pair) MsgType() string { return schema.TypePair }

// StateSpec is the caller input for creating one custom state.
type StateSpec struct {
	ID           string
	Description  string
	DefaultValue string
	ParentGroup  string
}

type CreateState struct {
	Type         string `json:"type"`
	ID           string `json:"id"`
	Desc         string `json:"desc"`
	DefaultValue string `json:"defaultValue"`
	ParentGroup  string `json:"parentGroup,omitempty"`
}

func (m CreateState) MsgType() string { return schema.TypeCreateState }

type RemoveState struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (m RemoveState) MsgType() string { return schema.TypeRemoveState }

type StateUpdate struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Value string `json:"value"`
}

func (m StateUpdate) MsgType() string { return schema.TypeStateUpdate }

// StateValue is one entry of a batched state update.
type StateValue struct {
	ID    string
	Value string
}

type ChoiceUpdate struct {
	Type       string   `json:"type"`
	ID         string   `json:"id"`
	InstanceID string   `json:"instanceId,omitempty"`
	Value      []string `json:"value"`
}

func (m ChoiceUpdate) MsgType() string { return schema.TypeChoiceUpdate }

// Connector is one entry of a batched connector update. A non-empty ShortID
// selects the short-id form and ID is ignored.
type Connector struct {
	ID      string
	ShortID string
	Value   string
	Data    []DataItem
}

type ConnectorUpdate struct {
	Type        string `json:"type"`
	ConnectorID string `json:"connectorId,omitempty"`
	ShortID     string `json:"shortId,omitempty"`
	Value       int    `json:"value"`
}

func (m ConnectorUpdate) MsgType() string { return schema.TypeConnectorUpdate }

type SettingUpdate struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (m SettingUpdate) MsgType() string { return schema.TypeSettingUpdate }

// ActionData describes a number field bound to an action instance.
type ActionData struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	MinValue float64 `json:"minValue"`
	MaxValue float64 `json:"maxValue"`
}

type UpdateActionData struct {
	Type       string     `json:"type"`
	InstanceID string     `json:"instanceId"`
	Data       ActionData `json:"data"`
}

func (m UpdateActionData) MsgType() string { return schema.TypeUpdateActionData }

type NotificationOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ShowNotification struct {
	Type           string               `json:"type"`
	NotificationID string               `json:"notificationId"`
	Title          string               `json:"title"`
	Msg            string               `json:"msg"`
	Options        []NotificationOption `json:"options"`
}

func (m ShowNotification) MsgType() string { return schema.TypeShowNotification }
