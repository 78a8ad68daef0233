package agent

import "errors"

// Errors for inbound control message handling.
// Both are logged and dropped; neither ever stops the delivery flow.
var (
	// ErrMalformedMessage is returned when an inbound payload is not valid
	// JSON, lacks the required command field, or omits a field the named
	// command requires.
	ErrMalformedMessage = errors.New("agent: malformed control message")

	// ErrUnknownCommand is returned when a well-formed message names a
	// command the agent does not recognize.
	ErrUnknownCommand = errors.New("agent: unknown command")
)
