package client

import (
	"errors"

	"github.com/danmuck/tpkit/internal/session"
	"github.com/danmuck/tpkit/protocol"
)

var (
	ErrMissingPluginID  = protocol.ErrMissingPluginID
	ErrDuplicateState   = session.ErrDuplicateState
	ErrUnknownState     = session.ErrUnknownState
	ErrAlreadyConnected = errors.New("client: connect already attempted")
	ErrNotConnected     = errors.New("client: not connected")
	ErrNotPaired        = errors.New("client: pairing not sent yet")
	ErrTransport        = errors.New("client: transport error")
)
