package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/danmuck/tpkit/protocol/frame"
)

// Encode serializes one outbound message without its frame delimiter.
func Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode type=%s: %w", msg.MsgType(), err)
	}
	return payload, nil
}

// EncodeFrame serializes one message and appends the frame delimiter.
func EncodeFrame(msg Message) ([]byte, error) {
	payload, err := Encode(msg)
	if err != nil {
		return nil, err
	}
	return append(payload, frame.Delimiter), nil
}

// EncodeBatch serializes every message and joins them into one payload.
func EncodeBatch(msgs ...Message) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: encode batch", ErrEmptyBatch)
	}
	frames := make([][]byte, 0, len(msgs))
	for _, msg := range msgs {
		payload, err := Encode(msg)
		if err != nil {
			return nil, err
		}
		frames = append(frames, payload)
	}
	return frame.Join(frames), nil
}
