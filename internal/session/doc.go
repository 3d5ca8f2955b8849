// Package session keeps the editor's working state and mirrors it to a
// session-scoped backend.
//
// # Overview
//
// The Manager owns a single State record (current text, original input,
// decoded flag, result flag). Every mutation is applied to memory first and is
// visible to Get immediately; the backend write follows. There is no rollback:
// when a write fails the in-memory state keeps the change and the caller
// receives a *SaveError.
//
// # Write paths
//
//	Update(ctx, p)       merge, then write p now (caller waits)
//	UpdateDebounced(p)   merge, then write p after a quiet period
//	Flush(ctx)           write the pending debounced partial now
//	Clear(ctx)           reset memory, clear the backend namespace
//
// UpdateDebounced keeps only the latest partial. Two calls with different
// field sets inside one window result in a single write carrying only the
// second call's fields:
//
//	m.UpdateDebounced(Partial{CurrentText: Text("a"), OriginalInput: Text("a")})
//	m.UpdateDebounced(Partial{CurrentText: Text("ab")})
//	// 300ms later the backend receives {currentText: "ab"} only
//
// # Status indicator
//
// Writes drive a small indicator (saving, saved, hidden). StatusSaved reverts
// to StatusHidden after the display window. A failed write goes straight to
// StatusHidden; for debounced writes this is the only trace of the failure.
//
// # Backends
//
// MemoryBackend lives here; sqlite and redis implementations are in the
// sub-packages of the same names. All of them namespace keys by login session
// so that Clear removes everything the current session stored.
package session
