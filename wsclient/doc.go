// Package wsclient is the WebSocket transport for stream sessions.
//
// Client dials <endpoint><path>?token=<credential> with gorilla/websocket and
// returns a connection that encodes stream.Request values as JSON text
// frames and decodes inbound frames into stream.Message values.
package wsclient
