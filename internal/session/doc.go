// Package session owns client-side session bookkeeping for one host connection.
//
// Ownership boundary:
// - custom state registry
// - pairing handshake write
// - transport config and reconnect backoff primitives
//
// Reconnect policy belongs to the embedding application; this package only
// computes delays.
package session
