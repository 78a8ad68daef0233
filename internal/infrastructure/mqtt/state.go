package mqtt

// ConnectionState describes the client's view of the broker session.
//
// State is owned exclusively by the Client; callers read it through State()
// or IsConnected() and never mutate it.
type ConnectionState int

const (
	// Disconnected means no session exists. This is the initial state and the
	// state after a transport-detected drop or Close().
	Disconnected ConnectionState = iota

	// Connecting is the transient state during a connect or reconnect attempt.
	Connecting

	// Connected means the session is established and usable.
	Connected
)

// String returns the lowercase name of the state for logging.
func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}
