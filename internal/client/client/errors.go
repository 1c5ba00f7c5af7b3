package client

import (
	"errors"
	"fmt"
)

var ErrUnavailable = errors.New("node unavailable")

// TransportError reports a command that never produced a usable reply.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send %q: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
