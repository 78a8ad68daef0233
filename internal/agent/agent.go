package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/statmq/statmq/internal/infrastructure/config"
	"github.com/statmq/statmq/internal/infrastructure/logging"
	"github.com/statmq/statmq/internal/infrastructure/mqtt"
	"github.com/statmq/statmq/internal/telemetry"
)

// Broker is the slice of the MQTT session the agent needs. *mqtt.Client
// satisfies it; tests substitute a fake.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
	Reconnect(ctx context.Context) error
}

// Options configures a new Agent. Config, Broker, Record and Logger are
// required; Providers may be empty (the record then carries only identity).
type Options struct {
	Config    *config.Config
	Broker    Broker
	Providers []telemetry.Provider
	Record    *telemetry.Record
	Logger    *logging.Logger
}

// Agent owns the supervising loop: the publish cadence, connection recovery
// and the shared runtime state the command processor mutates.
//
// The publish interval and the last-publish timestamp are the only state
// shared between the loop and the inbound command path; both are guarded by
// a single mutex. The telemetry record is accessed under the same mutex,
// since both paths write its dynamic fields.
type Agent struct {
	broker    Broker
	providers []telemetry.Provider
	record    *telemetry.Record
	log       *logging.Logger

	qos          byte
	publishTopic string
	controlTopic string
	quiesce      time.Duration

	// subscribed tracks whether the control-topic subscription is live.
	// Owned by the Run goroutine; a failed subscribe is retried from the
	// loop whenever the session is up.
	subscribed bool

	mu              sync.Mutex
	publishInterval time.Duration
	lastPublish     int64 // epoch seconds of the last telemetry publish

	// now is the clock; replaced in tests to drive the cadence.
	now func() time.Time

	// tick is the loop granularity. The loop never busy-spins: each
	// iteration blocks on the ticker when no work is due.
	tick time.Duration
}

// New wires an Agent from its collaborators.
func New(opts Options) (*Agent, error) {
	if opts.Config == nil || opts.Broker == nil || opts.Record == nil || opts.Logger == nil {
		return nil, errors.New("agent: config, broker, record and logger are required")
	}

	return &Agent{
		broker:          opts.Broker,
		providers:       opts.Providers,
		record:          opts.Record,
		log:             opts.Logger,
		qos:             byte(opts.Config.MQTT.QoS),
		publishTopic:    opts.Config.Topics.Publish,
		controlTopic:    opts.Config.Topics.Control,
		quiesce:         opts.Config.QuiesceDelay(),
		publishInterval: opts.Config.PublishInterval(),
		now:             time.Now,
		tick:            time.Second,
	}, nil
}

// Run executes the supervising loop until ctx is cancelled or the reconnect
// budget is exhausted.
//
// Startup: subscribe to the control topic (failure is logged, not fatal —
// the loop retries it once the session is usable), then publish a first
// telemetry record immediately.
//
// Each loop iteration then:
//  1. If the session is down, waits a fixed quiescent period and calls
//     Reconnect. Only an exhausted reconnect budget ends the run — the
//     caller maps that to a fatal exit, with cleanup in its defer chain.
//     Any other recovery error is logged and retried next iteration.
//  2. Re-issues the control subscription if it has never succeeded.
//  3. Publishes fresh telemetry once the configured interval has elapsed
//     since the last publish.
//
// Returns nil on cancellation (normal shutdown), or the fatal reconnect
// error.
func (a *Agent) Run(ctx context.Context) error {
	a.subscribed = a.subscribeControl()

	if err := a.publishTelemetry(); err != nil {
		a.log.Error("initial telemetry publish failed", "error", err)
	}

	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown requested")
			return nil
		case <-ticker.C:
		}

		if !a.broker.IsConnected() {
			if err := a.recoverSession(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if errors.Is(err, mqtt.ErrReconnectTimeout) {
					return fmt.Errorf("recovering broker session: %w", err)
				}
				a.log.Warn("session recovery failed, retrying", "error", err)
			}
			continue
		}

		if !a.subscribed {
			a.subscribed = a.subscribeControl()
		}

		if a.intervalElapsed() {
			if err := a.publishTelemetry(); err != nil {
				a.log.Error("scheduled telemetry publish failed", "error", err)
			}
		}
	}
}

// subscribeControl issues the control-topic subscription and reports whether
// it took. Once it succeeds the transport owns it: reconnects replay tracked
// subscriptions, so the loop never needs to re-issue a live one.
func (a *Agent) subscribeControl() bool {
	if err := a.broker.Subscribe(a.controlTopic, a.qos, a.HandleCommand); err != nil {
		a.log.Error("control topic subscription failed, will retry",
			"topic", a.controlTopic,
			"error", err,
		)
		return false
	}
	a.log.Info("subscribed to control topic", "topic", a.controlTopic)
	return true
}

// recoverSession waits the quiescent period, then drives a bounded
// reconnect. The quiescent wait keeps a flapping broker from being flooded
// with immediate reconnect attempts.
func (a *Agent) recoverSession(ctx context.Context) error {
	a.log.Warn("broker session lost, reconnecting", "quiesce", a.quiesce.String())

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.quiesce):
	}

	if err := a.broker.Reconnect(ctx); err != nil {
		return err
	}

	a.log.Info("broker session re-established")
	return nil
}

// intervalElapsed reports whether the publish interval has passed since the
// last telemetry publish.
func (a *Agent) intervalElapsed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.now().Unix()-int64(a.publishInterval.Seconds()) > a.lastPublish
}

// publishTelemetry samples every provider, stamps and publishes the record,
// and advances the last-publish timestamp to the publish instant.
//
// Sampling and serialisation happen inside the critical section; the
// network send does not, so inbound commands are never blocked behind a
// slow broker.
func (a *Agent) publishTelemetry() error {
	a.mu.Lock()
	for _, p := range a.providers {
		value, err := p.Sample()
		if err != nil {
			a.log.Warn("metric sample failed", "metric", p.Metric(), "error", err)
			continue
		}
		a.record.SetMetric(p.Metric(), value)
	}
	publishedAt := a.now()
	a.record.Stamp(publishedAt)
	payload, err := json.Marshal(a.record)
	a.mu.Unlock()

	if err != nil {
		return fmt.Errorf("encoding telemetry record: %w", err)
	}

	if err := a.broker.Publish(a.publishTopic, payload, a.qos, false); err != nil {
		return err
	}

	a.mu.Lock()
	a.lastPublish = publishedAt.Unix()
	a.mu.Unlock()

	a.log.Info("telemetry published", "topic", a.publishTopic)
	return nil
}

// publishStatus publishes the currently held record without resampling
// metrics and without advancing the last-publish timestamp. The timestamp
// field is still overwritten: it always reflects the publish attempt.
func (a *Agent) publishStatus() error {
	a.mu.Lock()
	a.record.Stamp(a.now())
	payload, err := json.Marshal(a.record)
	a.mu.Unlock()

	if err != nil {
		return fmt.Errorf("encoding telemetry record: %w", err)
	}

	if err := a.broker.Publish(a.publishTopic, payload, a.qos, false); err != nil {
		return err
	}

	a.log.Info("status published", "topic", a.publishTopic)
	return nil
}

// Interval returns the current publish interval.
func (a *Agent) Interval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.publishInterval
}
