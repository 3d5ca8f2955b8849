// Package ui provides the Bubble Tea terminal interface for flowdecoder.
//
// # Layout
//
// The screen is a single column:
//
//   - Header: app name, the INPUT/RESULT mode badge, the save indicator and
//     the session backend
//   - Body: a textarea for raw input, or a scrollable viewport with the
//     highlighted JSON result
//   - Toasts: one line per queued notification, right-aligned, newest last
//   - Footer: short key help
//
// # Event flow
//
// All editor actions go through editor.Editor, which updates the session store
// and pushes toasts. Toast timers and the debounced save run on their own
// goroutines; they signal the model through a one-slot channel and the model
// re-reads the queue and the save status when it wakes. Listeners never block,
// so a toast raised from inside Update cannot deadlock the program.
//
// # Key bindings
//
// Editor actions use ctrl chords so that every printable key reaches the
// textarea. See DefaultKeyMap and the f1 overlay.
//
// # Preferences
//
// Theme and line-number choices are written to prefs.toml as soon as they
// change.
package ui
