// Package archive keeps completed nutrition reports keyed by barcode.
//
// Reports live in a provider.ContextStore: RedisStore for a shared archive,
// or provider.MemoryStore for a single process. Component wires the chosen
// backend into the component registry.
package archive
