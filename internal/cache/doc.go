// Package cache keeps resolved favicons for the lifetime of the process.
//
// Entries are never evicted or refreshed: the key space (domains actually
// requested) is small and changes slowly, and a stale icon is acceptable.
package cache
