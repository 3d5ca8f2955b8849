// Package config loads flowdecoder's configuration.
//
// Settings come from a TOML file (default ~/.config/flowdecoder/config.toml)
// and are then overridden by environment variables:
//
//	FLOWDECODER_STORE        storage backend (sqlite, redis, memory)
//	FLOWDECODER_SESSION_DB   sqlite database path
//	FLOWDECODER_REDIS_URL    redis connection URL
//	FLOWDECODER_SESSION      session namespace
//	FLOWDECODER_LOG_LEVEL    debug, info, warn or error
//	FLOWDECODER_DEBOUNCE_MS  debounce window for persisted input
//
// Example config.toml:
//
//	[storage]
//	backend = "sqlite"
//	session_ttl_hours = 12
//
//	[editor]
//	indent = 4
//	strict = true
//	debounce_ms = 300
//
//	[toasts]
//	max = 5
//	exit_delay_ms = 300
//
//	[log]
//	level = "info"
//
// A missing file is not an error; every field has a default. The session
// database lives under $XDG_RUNTIME_DIR so state does not outlive the login
// session, and the namespace defaults to $XDG_SESSION_ID.
package config
