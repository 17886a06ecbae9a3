// Package provider defines the small set of backend abstractions nutristream
// builds on.
//
//   - Duplex[I, O] opens a DuplexStream[I, O]: one bidirectional connection
//     such as a WebSocket.
//   - ContextStore[C] persists typed values under opaque keys with a TTL.
//
// Logged wraps a DuplexStream so every send and receive failure is logged
// with the provider name, without the transport knowing about logging.
package provider
