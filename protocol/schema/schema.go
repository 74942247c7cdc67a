package schema

import (
	"encoding/json"
	"fmt"
)

// Inbound message types sent by the host.
const (
	TypeClosePlugin               = "closePlugin"
	TypeInfo                      = "info"
	TypeSettings                  = "settings"
	TypeNotificationOptionClicked = "notificationOptionClicked"
	TypeListChange                = "listChange"
	TypeAction                    = "action"
	TypeUp                        = "up"
	TypeDown                      = "down"
	TypeBroadcast                 = "broadcast"
	TypeShortConnectorIDNotice    = "shortConnectorIdNotification"
	TypeConnectorChange           = "connectorChange"
)

// Outbound message types sent by the plugin.
const (
	TypePair             = "pair"
	TypeCreateState      = "createState"
	TypeRemoveState      = "removeState"
	TypeStateUpdate      = "stateUpdate"
	TypeChoiceUpdate     = "choiceUpdate"
	TypeConnectorUpdate  = "connectorUpdate"
	TypeSettingUpdate    = "settingUpdate"
	TypeUpdateActionData = "updateActionData"
	TypeShowNotification = "showNotification"
)

// Kind is the JSON value class a field must carry.
type Kind uint8

const (
	KindAny Kind = iota
	KindString
	KindNumber
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "any"
	}
}

// Requirement names a field that must be present. When Alt is set, either
// Field or Alt satisfies it.
type Requirement struct {
	Field string
	Kind  Kind
	Alt   string
}

type ValidationError struct {
	Type   string
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: type=%q: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("schema: type=%q field=%q: %s", e.Type, e.Field, e.Reason)
}

var inbound = map[string][]Requirement{
	TypeClosePlugin:               {{Field: "pluginId", Kind: KindString}},
	TypeInfo:                      {},
	TypeSettings:                  {{Field: "values", Kind: KindArray}},
	TypeNotificationOptionClicked: {{Field: "notificationId", Kind: KindString}, {Field: "optionId", Kind: KindString}},
	TypeListChange:                {{Field: "actionId", Kind: KindString}, {Field: "listId", Kind: KindString}},
	TypeAction:                    {{Field: "actionId", Kind: KindString}},
	TypeUp:                        {{Field: "actionId", Kind: KindString}},
	TypeDown:                      {{Field: "actionId", Kind: KindString}},
	TypeBroadcast:                 {{Field: "event", Kind: KindString}},
	TypeShortConnectorIDNotice:    {{Field: "shortId", Kind: KindString}, {Field: "connectorId", Kind: KindString}},
	TypeConnectorChange:           {{Field: "connectorId", Kind: KindString}, {Field: "value", Kind: KindNumber}},
}

var outbound = map[string][]Requirement{
	TypePair: {{Field: "id", Kind: KindString}},
	TypeCreateState: {
		{Field: "id", Kind: KindString},
		{Field: "desc", Kind: KindString},
		{Field: "defaultValue", Kind: KindString},
	},
	TypeRemoveState: {{Field: "id", Kind: KindString}},
	TypeStateUpdate: {{Field: "id", Kind: KindString}, {Field: "value", Kind: KindString}},
	TypeChoiceUpdate: {
		{Field: "id", Kind: KindString},
		{Field: "value", Kind: KindArray},
	},
	TypeConnectorUpdate: {
		{Field: "connectorId", Kind: KindString, Alt: "shortId"},
		{Field: "value", Kind: KindNumber},
	},
	TypeSettingUpdate: {{Field: "name", Kind: KindString}, {Field: "value", Kind: KindString}},
	TypeUpdateActionData: {
		{Field: "instanceId", Kind: KindString},
		{Field: "data", Kind: KindObject},
	},
	TypeShowNotification: {
		{Field: "notificationId", Kind: KindString},
		{Field: "title", Kind: KindString},
		{Field: "msg", Kind: KindString},
		{Field: "options", Kind: KindArray},
	},
}

func IsInbound(msgType string) bool {
	_, ok := inbound[msgType]
	return ok
}

func IsOutbound(msgType string) bool {
	_, ok := outbound[msgType]
	return ok
}

// Required returns the requirements registered for msgType, inbound or outbound.
func Required(msgType string) []Requirement {
	if reqs, ok := outbound[msgType]; ok {
		return reqs
	}
	return inbound[msgType]
}

// Validate checks decoded top-level fields against the requirements for msgType.
// Fields not named by a requirement are ignored.
func Validate(msgType string, fields map[string]json.RawMessage) error {
	reqs, ok := outbound[msgType]
	if !ok {
		reqs, ok = inbound[msgType]
	}
	if !ok {
		return ValidationError{Type: msgType, Reason: "unknown message type"}
	}
	for _, req := range reqs {
		name := req.Field
		raw, present := lookup(fields, name)
		if !present && req.Alt != "" {
			name = req.Alt
			raw, present = lookup(fields, name)
		}
		if !present {
			return ValidationError{Type: msgType, Field: req.Field, Reason: "missing required field"}
		}
		if req.Kind != KindAny && kindOf(raw) != req.Kind {
			return ValidationError{Type: msgType, Field: name, Reason: "expected " + req.Kind.String()}
		}
	}
	return nil
}

func lookup(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	raw, ok := fields[name]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

func kindOf(raw json.RawMessage) Kind {
	for _, b := range raw {
		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			continue
		case b == '"':
			return KindString
		case b == '[':
			return KindArray
		case b == '{':
			return KindObject
		case b == '-' || (b >= '0' && b <= '9'):
			return KindNumber
		default:
			return KindAny
		}
	}
	return KindAny
}
