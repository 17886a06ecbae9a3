// Package errors provides the structured error type used across nutristream.
//
// Every failure surfaced by a session, a transport, or the development
// backend is an *AppError carrying a machine-readable code. Callers branch
// on the code with IsCode rather than on message text.
package errors
