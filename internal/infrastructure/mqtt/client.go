package mqtt

import (
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/statmq/statmq/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang as the agent's broker session.
//
// It owns the connection lifecycle (connect, reconnect with backoff, close),
// tracks subscriptions so they can be re-issued after a reconnect (clean
// sessions mean the broker forgets them), and delivers inbound messages to
// per-topic handlers.
//
// Connection recovery is intentionally manual: the transport never reconnects
// on its own. The supervising loop observes IsConnected() and drives recovery
// through Reconnect, so there is exactly one place in the process that decides
// when a connectivity failure becomes fatal.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	// subscriptions tracks active subscriptions for re-subscription on reconnect.
	subscriptions map[string]subscription
	subMu         sync.RWMutex

	state   ConnectionState
	stateMu sync.RWMutex

	listener   Listener
	listenerMu sync.RWMutex

	// logger for handler error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex

	closeOnce sync.Once
}

// Listener receives connection lifecycle events.
//
// OnConnect fires after every successful connect or reconnect, once
// subscriptions have been restored. OnDisconnect fires when the transport
// detects a dropped connection; err describes the cause.
//
// Callbacks run on the transport's goroutines and must not block.
type Listener interface {
	OnConnect()
	OnDisconnect(err error)
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// subscription holds subscription details for re-subscription on reconnect.
type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked by the transport asynchronously relative to the
// supervising loop; per-topic delivery order follows arrival order. They
// should not block beyond brief critical sections.
//
// A returned error is logged but does not affect message acknowledgment.
type MessageHandler func(topic string, payload []byte) error

// New creates an unconnected client for the given broker configuration.
//
// clientID identifies this agent to the broker; the caller typically derives
// it from the host's MAC address. Call Connect to establish the session.
func New(cfg config.MQTTConfig, clientID string) *Client {
	opts := buildClientOptions(cfg, clientID)

	c := &Client{
		cfg:           cfg,
		options:       opts,
		subscriptions: make(map[string]subscription),
		state:         Disconnected,
	}

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	c.client = pahomqtt.NewClient(opts)
	return c
}

// Connect establishes the initial session with the broker.
//
// Failures are not retried here: a refused connection returns
// ErrConnectionRefused and an unresponsive broker returns ErrConnectTimeout,
// both of which abort startup. Recovery from drops after a successful
// startup is Reconnect's job.
func (c *Client) Connect() error {
	c.setState(Connecting)

	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		c.setState(Disconnected)
		return fmt.Errorf("%w: no response after %v", ErrConnectTimeout, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		c.setState(Disconnected)
		return fmt.Errorf("%w: %w", ErrConnectionRefused, err)
	}

	c.handleConnected()
	return nil
}

// handleConnected records the established session and replays tracked
// subscriptions. Runs synchronously on the Connect/Reconnect caller, so the
// session is fully usable before either returns.
func (c *Client) handleConnected() {
	c.setState(Connected)
	c.restoreSubscriptions()

	if l := c.getListener(); l != nil {
		l.OnConnect()
	}
}

// handleConnectionLost is called by the transport when an established
// connection drops.
func (c *Client) handleConnectionLost(err error) {
	c.setState(Disconnected)

	if l := c.getListener(); l != nil {
		l.OnDisconnect(err)
	}
}

// restoreSubscriptions re-subscribes to all tracked topics after reconnect.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, sub := range c.subscriptions {
		token := c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
		if token.WaitTimeout(defaultOpTimeout) && token.Error() == nil {
			continue
		}
		if logger := c.getLogger(); logger != nil {
			logger.Warn("failed to restore subscription after reconnect",
				"topic", sub.topic,
				"error", token.Error(),
			)
		}
	}
}

// Close unsubscribes, stops message delivery and disconnects.
//
// Close is idempotent: the supervising loop reaches it through a deferred
// cleanup on every exit path, and only the first call does any work.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.client == nil {
			return
		}

		if c.IsConnected() {
			c.subMu.Lock()
			for topic := range c.subscriptions {
				token := c.client.Unsubscribe(topic)
				token.WaitTimeout(defaultOpTimeout)
				delete(c.subscriptions, topic)
			}
			c.subMu.Unlock()
		}

		c.client.Disconnect(defaultDisconnectQuiesce)
		c.setState(Disconnected)
	})

	return nil
}

// State returns the client's current connection state.
func (c *Client) State() ConnectionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected returns the current boolean connectivity status.
//
// Non-blocking; reflects the last known state and may lag the transport by
// callback latency.
func (c *Client) IsConnected() bool {
	return c.State() == Connected && c.client != nil && c.client.IsConnected()
}

// SetListener registers a listener for connection lifecycle events.
func (c *Client) SetListener(l Listener) {
	c.listenerMu.Lock()
	c.listener = l
	c.listenerMu.Unlock()
}

// SetLogger sets a logger for handler error and panic logging.
// If not set, errors in handlers are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) setState(s ConnectionState) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

func (c *Client) getListener() Listener {
	c.listenerMu.RLock()
	defer c.listenerMu.RUnlock()
	return c.listener
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// wrapHandler wraps a MessageHandler with panic recovery and optional logging.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("MQTT handler returned error",
					"topic", msg.Topic(),
					"error", err,
				)
			}
		}
	}
}
