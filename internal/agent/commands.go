package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/statmq/statmq/internal/infrastructure/config"
)

// Recognized control commands.
const (
	cmdPublishTelemetry = "publishTelemetry"
	cmdChangeInterval   = "changeTelemetryInterval"
	cmdPublishStatus    = "publishStatus"
	cmdDebug            = "debug"
)

// recognizedCommands is logged when an unknown command arrives, so the
// sender can see what the agent actually understands.
var recognizedCommands = []string{
	cmdPublishTelemetry,
	cmdChangeInterval,
	cmdPublishStatus,
	cmdDebug,
}

// commandEnvelope is the tagged schema of inbound control messages.
// Value is only meaningful for changeTelemetryInterval; a pointer
// distinguishes "absent" from zero.
type commandEnvelope struct {
	Command string `json:"command"`
	Value   *int   `json:"value,omitempty"`
}

// HandleCommand interprets one inbound control message.
//
// It is registered as the control-topic subscription handler, so it runs on
// the transport's goroutines, asynchronously relative to the supervising
// loop. All shared-state mutation goes through the agent's mutex.
//
// Malformed payloads and unknown commands are logged and dropped; the
// returned error is informational (the session wrapper logs it) and never
// stops message delivery.
func (a *Agent) HandleCommand(topic string, payload []byte) error {
	var env commandEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		a.log.Warn("dropping unparseable control message",
			"topic", topic,
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Command == "" {
		a.log.Warn("dropping control message without a command field", "topic", topic)
		return fmt.Errorf("%w: missing command field", ErrMalformedMessage)
	}

	a.log.Info("processing command", "command", env.Command)

	switch env.Command {
	case cmdPublishTelemetry:
		if err := a.publishTelemetry(); err != nil {
			return fmt.Errorf("publishTelemetry command: %w", err)
		}
		return nil

	case cmdChangeInterval:
		return a.changeInterval(env.Value)

	case cmdPublishStatus:
		if err := a.publishStatus(); err != nil {
			return fmt.Errorf("publishStatus command: %w", err)
		}
		return nil

	case cmdDebug:
		a.logDebugState()
		return nil

	default:
		a.log.Warn("unrecognized command",
			"command", env.Command,
			"recognized", recognizedCommands,
		)
		return fmt.Errorf("%w: %q", ErrUnknownCommand, env.Command)
	}
}

// changeInterval applies a validated publish-interval change.
//
// The new value must differ from the current interval and exceed
// config.MinPublishInterval; anything else is a logged no-op. Requesting
// the current value is not an error — it simply changes nothing.
func (a *Agent) changeInterval(value *int) error {
	if value == nil {
		a.log.Warn("changeTelemetryInterval without a value field")
		return fmt.Errorf("%w: changeTelemetryInterval requires a value field", ErrMalformedMessage)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	current := int(a.publishInterval / time.Second)
	if *value == current || *value <= config.MinPublishInterval {
		a.log.Info("leaving publish interval unchanged",
			"current", current,
			"requested", *value,
		)
		return nil
	}

	a.publishInterval = time.Duration(*value) * time.Second
	a.log.Info("publish interval changed",
		"old", current,
		"new", *value,
	)
	return nil
}

// logDebugState logs a summary of the agent's identity and runtime state.
// Purely informational; mutates nothing.
func (a *Agent) logDebugState() {
	a.mu.Lock()
	interval := a.publishInterval
	lastPublish := a.lastPublish
	a.mu.Unlock()

	a.log.Info("agent state",
		"host", a.record.Host,
		"mac", a.record.MACAddress,
		"ip", a.record.IPAddress,
		"publish_topic", a.publishTopic,
		"control_topic", a.controlTopic,
		"interval", interval.String(),
		"last_publish", lastPublish,
		"connected", a.broker.IsConnected(),
	)
}
