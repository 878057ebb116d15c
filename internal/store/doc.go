// Package store persists OAuth tokens and the PKCE verifier in a client-side key-value store.
//
// Key Implementations:
//   - [Storage] : key-value medium with get/set/remove semantics
//   - [MemoryStorage] : session-scoped storage that lives as long as the process
//   - [SQLiteStorage] : durable storage backed by the kv_store table
//   - [TokenStore] : typed access to the token bundle and PKCE verifier slots
//
// Every operation is idempotent. Removing a missing key is a no-op, and an unparseable
// token bundle loads as absent rather than as an error.
package store
