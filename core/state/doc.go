// Package state keeps per-user dialogue sessions.
//
// A Store holds at most one Session per user id. Backends are an in-process
// map (MemoryStore) and Redis (RedisStore). A Locker serializes the
// read-modify-write cycle of a single user when several workers or processes
// share a Store.
package state
