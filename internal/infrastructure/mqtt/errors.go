package mqtt

import "errors"

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionRefused is returned when the broker actively refuses the
	// connection. Startup treats this as fatal rather than retrying.
	ErrConnectionRefused = errors.New("mqtt: connection refused by broker")

	// ErrConnectTimeout is returned when the broker does not respond to a
	// connection attempt within the connect timeout.
	ErrConnectTimeout = errors.New("mqtt: connection attempt timed out")

	// ErrReconnectTimeout is returned by Reconnect when the overall reconnect
	// budget is exhausted without re-establishing the session. The supervising
	// loop treats this as fatal.
	ErrReconnectTimeout = errors.New("mqtt: reconnect timed out")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed is returned when an unsubscribe operation fails.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty or invalid topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
