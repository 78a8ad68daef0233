// Package mqtt provides the broker session for the statmq agent.
//
// This package manages:
//   - Connection to the MQTT broker with explicit, loop-driven reconnection
//   - Telemetry publishing with QoS from configuration
//   - The control-topic subscription, restored after every reconnect
//   - Connection state tracking (Disconnected / Connecting / Connected)
//
// # Recovery model
//
// Unlike most paho wrappers, this client never reconnects on its own.
// The agent's supervising loop is the single authority on recovery: it
// notices a dropped session via IsConnected, waits a quiescent period and
// calls Reconnect, which retries with exponential backoff inside a bounded
// budget. When the budget runs out, Reconnect returns ErrReconnectTimeout
// and the agent shuts down cleanly instead of hanging.
//
// Clean sessions are used throughout, so subscriptions do not survive a
// fresh connection; the client tracks them and re-issues them itself.
//
// # Usage
//
//	client := mqtt.New(cfg.MQTT, clientID)
//	if err := client.Connect(); err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err := client.Subscribe(cfg.Topics.Control, byte(cfg.MQTT.QoS),
//	    func(topic string, payload []byte) error {
//	        return handleCommand(payload)
//	    })
package mqtt
