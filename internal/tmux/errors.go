package tmux

import "fmt"

// AdapterError wraps a failed tmux invocation with the operation and
// session it targeted, plus any combined output tmux produced.
type AdapterError struct {
	Op      string
	Session string
	Output  string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Session == "" {
		if e.Output != "" {
			return fmt.Sprintf("tmux %s: %v: %s", e.Op, e.Err, e.Output)
		}
		return fmt.Sprintf("tmux %s: %v", e.Op, e.Err)
	}
	if e.Output != "" {
		return fmt.Sprintf("tmux %s (session %q): %v: %s", e.Op, e.Session, e.Err, e.Output)
	}
	return fmt.Sprintf("tmux %s (session %q): %v", e.Op, e.Session, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
