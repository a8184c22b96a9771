package session

import (
	"errors"
	"fmt"
)

// ErrDuplicateID is returned by Registry.Add when the id already exists.
// The registry is left unchanged.
var ErrDuplicateID = errors.New("session id already exists")

// ValidationError rejects a spawn request before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid spawn request: %s %s", e.Field, e.Reason)
}

// UnsupportedAgentTypeError rejects a spawn request naming an agent type
// outside the known set.
type UnsupportedAgentTypeError struct {
	AgentType AgentType
}

func (e *UnsupportedAgentTypeError) Error() string {
	return fmt.Sprintf("unsupported agent type %q", e.AgentType)
}

// RegistryIOError wraps a failure to read, lock, or write the registry
// file. The registry on disk is left unmodified.
type RegistryIOError struct {
	Path string
	Op   string
	Err  error
}

func (e *RegistryIOError) Error() string {
	return fmt.Sprintf("registry %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *RegistryIOError) Unwrap() error {
	return e.Err
}
