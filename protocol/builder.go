package protocol

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/danmuck/tpkit/protocol/schema"
)

const (
	connectorMin = 0
	connectorMax = 100

	actionDataNumber = "number"
)

// Builder validates caller input and produces outbound messages addressed
// from one plugin. It holds no connection state.
type Builder struct {
	PluginID string
}

func NewBuilder(pluginID string) Builder {
	return Builder{PluginID: pluginID}
}

func (b Builder) Pair() (Pair, error) {
	if blank(b.PluginID) {
		return Pair{}, fmt.Errorf("%w: pair", ErrMissingPluginID)
	}
	return Pair{Type: schema.TypePair, ID: b.PluginID}, nil
}

func (b Builder) CreateState(spec StateSpec) (CreateState, error) {
	if blank(spec.ID) {
		return CreateState{}, fmt.Errorf("%w: createState id", ErrMissingRequiredField)
	}
	return CreateState{
		Type:         schema.TypeCreateState,
		ID:           spec.ID,
		Desc:         spec.Description,
		DefaultValue: spec.DefaultValue,
		ParentGroup:  spec.ParentGroup,
	}, nil
}

// CreateStates validates a batch strictly: any invalid entry fails the batch.
func (b Builder) CreateStates(specs []StateSpec) ([]CreateState, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: createStateMany", ErrEmptyBatch)
	}
	out := make([]CreateState, 0, len(specs))
	for i, spec := range specs {
		msg, err := b.CreateState(spec)
		if err != nil {
			return nil, fmt.Errorf("createStateMany[%d]: %w", i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func (b Builder) RemoveState(id string) (RemoveState, error) {
	if blank(id) {
		return RemoveState{}, fmt.Errorf("%w: removeState id", ErrMissingRequiredField)
	}
	return RemoveState{Type: schema.TypeRemoveState, ID: id}, nil
}

func (b Builder) StateUpdate(id, value string) (StateUpdate, error) {
	if blank(id) {
		return StateUpdate{}, fmt.Errorf("%w: stateUpdate id", ErrMissingRequiredField)
	}
	return StateUpdate{Type: schema.TypeStateUpdate, ID: id, Value: value}, nil
}

func (b Builder) StateUpdates(values []StateValue) ([]StateUpdate, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: stateUpdateMany", ErrEmptyBatch)
	}
	out := make([]StateUpdate, 0, len(values))
	for i, v := range values {
		msg, err := b.StateUpdate(v.ID, v.Value)
		if err != nil {
			return nil, fmt.Errorf("stateUpdateMany[%d]: %w", i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func (b Builder) ChoiceUpdate(id string, values []string) (ChoiceUpdate, error) {
	if blank(id) {
		return ChoiceUpdate{}, fmt.Errorf("%w: choiceUpdate id", ErrMissingRequiredField)
	}
	if len(values) == 0 {
		return ChoiceUpdate{}, fmt.Errorf("%w: choiceUpdate id=%q value", ErrEmptyList, id)
	}
	return ChoiceUpdate{Type: schema.TypeChoiceUpdate, ID: id, Value: cloneStrings(values)}, nil
}

// ChoiceUpdateSpecific targets the choice list of one action instance.
func (b Builder) ChoiceUpdateSpecific(id string, values []string, instanceID string) (ChoiceUpdate, error) {
	msg, err := b.ChoiceUpdate(id, values)
	if err != nil {
		return ChoiceUpdate{}, fmt.Errorf("choiceUpdateSpecific: %w", err)
	}
	if blank(instanceID) {
		return ChoiceUpdate{}, fmt.Errorf("%w: choiceUpdateSpecific id=%q instanceId", ErrMissingRequiredField, id)
	}
	msg.InstanceID = instanceID
	return msg, nil
}

func (b Builder) SettingUpdate(name, value string) (SettingUpdate, error) {
	if blank(name) {
		return SettingUpdate{}, fmt.Errorf("%w: settingUpdate name", ErrMissingRequiredField)
	}
	return SettingUpdate{Type: schema.TypeSettingUpdate, Name: name, Value: value}, nil
}

// ConnectorID derives the long-form connector id:
// pc_<pluginId>_<id> followed by "|key=value" for each item, in order.
func (b Builder) ConnectorID(id string, data []DataItem) string {
	var sb strings.Builder
	sb.WriteString(ConnectorPrefix)
	sb.WriteByte('_')
	sb.WriteString(b.PluginID)
	sb.WriteByte('_')
	sb.WriteString(id)
	for _, item := range data {
		sb.WriteByte('|')
		sb.WriteString(item.ID)
		sb.WriteByte('=')
		sb.WriteString(item.Value)
	}
	return sb.String()
}

// ConnectorUpdate builds one connector update. value must be an integer in
// [0, 100]. With isShortID the id is sent verbatim as shortId.
func (b Builder) ConnectorUpdate(id, value string, data []DataItem, isShortID bool) (ConnectorUpdate, error) {
	if blank(id) {
		return ConnectorUpdate{}, fmt.Errorf("%w: connectorUpdate id", ErrMissingRequiredField)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return ConnectorUpdate{}, fmt.Errorf("%w: connectorUpdate id=%q value=%q is not an integer", ErrInvalidValue, id, value)
	}
	if n < connectorMin || n > connectorMax {
		return ConnectorUpdate{}, fmt.Errorf("%w: connectorUpdate id=%q value=%d must be between %d and %d", ErrOutOfRange, id, n, connectorMin, connectorMax)
	}

	msg := ConnectorUpdate{Type: schema.TypeConnectorUpdate, Value: n}
	if isShortID {
		msg.ShortID = id
		return msg, nil
	}
	if blank(b.PluginID) {
		return ConnectorUpdate{}, fmt.Errorf("%w: connectorUpdate id=%q", ErrMissingPluginID, id)
	}
	msg.ConnectorID = b.ConnectorID(id, data)
	return msg, nil
}

func (b Builder) ConnectorUpdates(conns []Connector) ([]ConnectorUpdate, error) {
	if len(conns) == 0 {
		return nil, fmt.Errorf("%w: connectorUpdateMany", ErrEmptyBatch)
	}
	out := make([]ConnectorUpdate, 0, len(conns))
	for i, c := range conns {
		id, short := c.ID, false
		if c.ShortID != "" {
			id, short = c.ShortID, true
		}
		msg, err := b.ConnectorUpdate(id, c.Value, c.Data, short)
		if err != nil {
			return nil, fmt.Errorf("connectorUpdateMany[%d]: %w", i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// UpdateActionData changes the bounds of a number field on one action instance.
// Only the "number" data type is supported by the host.
func (b Builder) UpdateActionData(instanceID string, data ActionData) (UpdateActionData, error) {
	switch {
	case blank(instanceID):
		return UpdateActionData{}, fmt.Errorf("%w: updateActionData instanceId", ErrMissingRequiredField)
	case blank(data.ID):
		return UpdateActionData{}, fmt.Errorf("%w: updateActionData instanceId=%q data.id", ErrMissingRequiredField, instanceID)
	case blank(data.Type):
		return UpdateActionData{}, fmt.Errorf("%w: updateActionData instanceId=%q data.type", ErrMissingRequiredField, instanceID)
	}
	if !finite(data.MinValue) || !finite(data.MaxValue) {
		return UpdateActionData{}, fmt.Errorf("%w: updateActionData instanceId=%q minValue=%v maxValue=%v", ErrInvalidValue, instanceID, data.MinValue, data.MaxValue)
	}
	if data.Type != actionDataNumber {
		return UpdateActionData{}, fmt.Errorf("%w: updateActionData instanceId=%q type=%q", ErrUnsupportedType, instanceID, data.Type)
	}
	return UpdateActionData{Type: schema.TypeUpdateActionData, InstanceID: instanceID, Data: data}, nil
}

func (b Builder) Notification(notificationID, title, msg string, options []NotificationOption) (ShowNotification, error) {
	if blank(notificationID) {
		return ShowNotification{}, fmt.Errorf("%w: sendNotification notificationId", ErrMissingRequiredField)
	}
	if len(options) == 0 {
		return ShowNotification{}, fmt.Errorf("%w: sendNotification notificationId=%q options", ErrEmptyList, notificationID)
	}
	opts := make([]NotificationOption, len(options))
	copy(opts, options)
	return ShowNotification{
		Type:           schema.TypeShowNotification,
		NotificationID: notificationID,
		Title:          title,
		Msg:            msg,
		Options:        opts,
	}, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
