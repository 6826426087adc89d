// Package resolver turns a domain into its favicon. It consults the cache,
// then runs the configured strategies in priority order and caches the first
// success. Concurrent lookups of the same uncached domain share one run.
package resolver
