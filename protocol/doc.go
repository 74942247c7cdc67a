// Package protocol owns the Touch Portal plugin wire contract.
//
// Ownership boundary:
// - inbound message union and decoding
// - outbound message shapes, validation and encoding
// - connector id derivation
//
// Framing lives in protocol/frame; type tables live in protocol/schema.
package protocol
