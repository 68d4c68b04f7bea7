// Package storage holds the backing stores behind each swap state.
//
// A store keeps fixed-size pages addressed by page number. Every store is
// created for exactly one page size and is safe for concurrent use.
//
// # Implementations
//
//   - MemoryStore: unbounded map, the usual backing for the most swapped-in tier.
//   - CacheStore: bounded LRU; refuses new pages once full.
//   - FileStore: one OS file, page n at offset n*pageSize, writes synced.
//   - BadgerStore: BadgerDB, persistent or in-memory, keyed by prefix and
//     big-endian page number.
//
// Open builds any of them from a Spec, which is what the config layer uses.
package storage
