// Package store persists to-do lists and their items.
//
// A list is an opaque identity that owns an ordered, append-only collection
// of items. Items are never edited or removed, so an item's 1-based position
// within its list is fixed at insertion time.
//
// The main components are:
//
//   - [Store]: Interface defining list creation, appends, lookups and subscriptions
//   - [MemoryStore]: In-memory implementation guarded by a mutex
//   - [SQLiteStore]: Persistent implementation backed by modernc.org/sqlite
//   - [ItemEvent]: Published to subscribers after every successful append
//
// Both implementations share the same publish-subscribe fan-out. Subscribers
// receive events via buffered channels with non-blocking sends (slow
// subscribers miss events rather than block writers).
package store
