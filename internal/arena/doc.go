// Package arena provides a fixed-capacity ring allocator for per-frame
// descriptor records.
//
// # Concurrency Model
//
// A Ring is single-writer by contract: all calls for a given frame slot must
// come from the thread that builds that frame's resource bindings. There are
// no locks or atomics inside; the design trades concurrency for bump-pointer
// speed.
//
// # Memory Management
//
// The backing store is allocated once at construction and reused indefinitely
// via wrap-around. Recovery from a collision with still-live records is a full
// Reset ("compaction by invalidation"), which is valid because every record in
// this domain is a cache of derivable data, not a source of truth. Reset bumps
// the arena generation so stale Refs are detectable.
package arena
