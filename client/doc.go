// Package client connects a plugin to the Touch Portal host.
//
// A Client owns one loopback TCP connection. It pairs on connect, splits the
// inbound stream into frames, decodes them and dispatches typed events to
// registered listeners on a single goroutine in arrival order. Outbound
// messages are validated by protocol.Builder and written by one writer at a
// time; batches go out as a single write.
//
// Custom states created through the client are tracked for the life of the
// connection. Reconnecting means building a new Client.
//
// The client never exits the process. Wait returns a Termination whose Exit
// field mirrors the exitOnClose option so the caller can decide.
package client
