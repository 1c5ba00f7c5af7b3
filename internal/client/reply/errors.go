package reply

import "fmt"

// ProtocolError reports a reply whose shape does not fit what the command
// requires. Raw carries the full reply text for diagnosis.
type ProtocolError struct {
	Command string
	Raw     string
	Reason  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected reply to %q: %s", e.Command, e.Reason)
}

func NewProtocolError(command, raw, reason string) *ProtocolError {
	return &ProtocolError{Command: command, Raw: raw, Reason: reason}
}
