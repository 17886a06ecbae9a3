// Package mockbackend is a development stand-in for the nutrition analysis
// service.
//
// It serves the streaming WebSocket at /ws/nutrition/stream, authenticated
// by an HS256 JWT in the token query parameter, and answers each
// {"barcode": ...} request with stream_chunk messages followed by a
// stream_complete carrying the full report. GET /products/:barcode/nutrition
// returns the same analysis as JSON behind bearer authentication.
package mockbackend
