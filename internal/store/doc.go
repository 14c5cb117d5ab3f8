// Package store provides durable client-side state for coven-chat.
//
// # Overview
//
// The chat client needs to remember exactly one thing between runs: the id
// of the conversation thread it was last attached to. The Store interface is
// a tiny string key/value contract so that value survives restarts, and
// ThreadIDKey is the fixed key it lives under.
//
// # Implementations
//
//   - SQLiteStore: persistent, backed by modernc.org/sqlite (no cgo)
//   - MockStore: in-memory, for tests
//
// # Usage
//
//	s, err := store.NewSQLiteStore(filepath.Join(configDir, "chat.db"))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	id, ok, err := s.Get(ctx, store.ThreadIDKey)
package store
