// Package component defines lifecycle-managed parts of a nutristream
// process: the streaming session, the development backend's HTTP server,
// and the report archive.
//
// A Registry starts components in registration order and stops them in
// reverse, so a component may depend on anything registered before it.
package component
