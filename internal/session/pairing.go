package session

import (
	"io"

	"github.com/danmuck/tpkit/protocol"
)

// WritePairing writes the pairing frame for pluginID. The host sends no
// synchronous ack; its info message arrives later through normal dispatch.
func WritePairing(w io.Writer, pluginID string) error {
	msg, err := protocol.NewBuilder(pluginID).Pair()
	if err != nil {
		return err
	}
	payload, err := protocol.EncodeFrame(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}
