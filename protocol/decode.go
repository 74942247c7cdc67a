package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/danmuck/tpkit/protocol/schema"
)

// Decode parses one frame into an inbound message. Known types must carry
// their required fields. Unrecognized types decode to Unknown. Every failure
// wraps ErrMalformedMessage.
func Decode(frame []byte) (Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	rawType, ok := fields["type"]
	if !ok {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	var msgType string
	if err := json.Unmarshal(rawType, &msgType); err != nil {
		return nil, fmt.Errorf("%w: type: %v", ErrMalformedMessage, err)
	}
	if msgType == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	if schema.IsInbound(msgType) {
		if err := schema.Validate(msgType, fields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
	}

	switch msgType {
	case schema.TypeClosePlugin:
		return decodeAs[ClosePlugin](frame, msgType)
	case schema.TypeInfo:
		return decodeAs[Info](frame, msgType)
	case schema.TypeSettings:
		return decodeAs[Settings](frame, msgType)
	case schema.TypeNotificationOptionClicked:
		return decodeAs[NotificationOptionClicked](frame, msgType)
	case schema.TypeListChange:
		return decodeAs[ListChange](frame, msgType)
	case schema.TypeAction, schema.TypeUp, schema.TypeDown:
		return decodeAs[Action](frame, msgType)
	case schema.TypeBroadcast:
		return decodeAs[Broadcast](frame, msgType)
	case schema.TypeShortConnectorIDNotice:
		return decodeAs[ShortConnectorIDNotification](frame, msgType)
	case schema.TypeConnectorChange:
		return decodeAs[ConnectorChange](frame, msgType)
	default:
		msg := Unknown{Type: msgType}
		msg.setRaw(cloneBytes(frame))
		return msg, nil
	}
}

type inboundPtr[T any] interface {
	*T
	setRaw([]byte)
}

func decodeAs[T any, P inboundPtr[T]](frame []byte, msgType string) (Inbound, error) {
	var msg T
	if err := json.Unmarshal(frame, P(&msg)); err != nil {
		return nil, fmt.Errorf("%w: type=%s: %v", ErrMalformedMessage, msgType, err)
	}
	P(&msg).setRaw(cloneBytes(frame))
	return any(msg).(Inbound), nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
