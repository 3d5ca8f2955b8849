package session

import "fmt"

// LoadError reports a failed read from the backend. The manager still falls
// back to the default state.
type LoadError struct{ Err error }

func (e *LoadError) Error() string { return fmt.Sprintf("load session state: %v", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports a failed write. The in-memory state keeps the change.
type SaveError struct{ Err error }

func (e *SaveError) Error() string { return fmt.Sprintf("save session state: %v", e.Err) }
func (e *SaveError) Unwrap() error { return e.Err }

// ClearError reports a failed backend clear. The in-memory state is reset anyway.
type ClearError struct{ Err error }

func (e *ClearError) Error() string { return fmt.Sprintf("clear session state: %v", e.Err) }
func (e *ClearError) Unwrap() error { return e.Err }
