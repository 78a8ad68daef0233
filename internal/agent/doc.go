// Package agent implements the statmq supervising loop and command processor.
//
// This package manages:
//   - The publish cadence: sample metrics and publish the telemetry record
//     every N seconds
//   - Connection recovery: quiescent wait, then bounded reconnect; a
//     reconnect timeout shuts the process down cleanly
//   - Inbound control commands that trigger publishes or retune the cadence
//     at runtime
//
// # Concurrency
//
// Two flows of control touch the agent: the supervising loop (ticker-driven,
// one goroutine) and the inbound command path (transport goroutines). The
// state they share — the publish interval, the last-publish timestamp and
// the telemetry record's dynamic fields — is guarded by a single mutex.
// Network sends happen outside the critical section, so a slow broker never
// blocks command handling.
//
// # Commands
//
// Control messages are JSON envelopes with a required "command" field:
//
//	{"command": "publishTelemetry"}
//	{"command": "changeTelemetryInterval", "value": 30}
//	{"command": "publishStatus"}
//	{"command": "debug"}
//
// Interval changes are applied only when the value differs from the current
// interval and exceeds the configured minimum. Malformed messages and
// unknown commands are logged and dropped without mutating anything.
package agent
