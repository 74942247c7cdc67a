package protocol

import "errors"

var (
	ErrMalformedMessage     = errors.New("protocol: malformed message")
	ErrMissingPluginID      = errors.New("protocol: plugin id required")
	ErrMissingRequiredField = errors.New("protocol: missing required field")
	ErrEmptyList            = errors.New("protocol: list must not be empty")
	ErrEmptyBatch           = errors.New("protocol: batch contains no entries")
	ErrOutOfRange           = errors.New("protocol: value out of range")
	ErrInvalidValue         = errors.New("protocol: invalid value")
	ErrUnsupportedType      = errors.New("protocol: unsupported type")
)
