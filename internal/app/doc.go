// Package app is the composition root for flowdecoder.
//
// Open loads config.toml, opens the JSON log file, reads UI preferences and
// connects the configured session backend (sqlite, redis or memory). It then
// builds the session manager, the toast queue and the editor on top of them.
// The TUI and every CLI subcommand go through Open, so they all see the same
// persisted session.
//
// With the sqlite backend a background pruner expires values older than the
// session TTL, backing off while the database is unavailable.
//
// Close flushes any debounced edit before releasing the backend and the log
// file.
package app
