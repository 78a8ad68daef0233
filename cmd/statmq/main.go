// statmq - Host Telemetry MQTT Agent
//
// statmq samples host telemetry (CPU temperature) and publishes it to an
// MQTT broker on a configurable interval. A control topic accepts runtime
// commands: trigger an immediate publish, retune the interval, report the
// currently held record, or dump agent state to the log.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/statmq/statmq/internal/agent"
	"github.com/statmq/statmq/internal/infrastructure/config"
	"github.com/statmq/statmq/internal/infrastructure/logging"
	"github.com/statmq/statmq/internal/infrastructure/mqtt"
	"github.com/statmq/statmq/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// Exit codes. Broker failures get their own code so supervisors
// (systemd, container restart policies) can tell them from bad config.
const (
	exitOK     = 0
	exitConfig = 1
	exitBroker = 2
)

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitOK)
}

// exitCode maps a run failure to a process exit code.
func exitCode(err error) int {
	switch {
	case errors.Is(err, mqtt.ErrConnectionRefused),
		errors.Is(err, mqtt.ErrConnectTimeout),
		errors.Is(err, mqtt.ErrReconnectTimeout):
		return exitBroker
	default:
		return exitConfig
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting statmq",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Resolve host identity. Everything is best-effort: a host without a
	// usable MAC still runs, it just gets a generated client ID.
	identity := telemetry.ResolveIdentity()
	clientID := cfg.MQTT.Broker.ClientID
	if clientID == "" {
		clientID = identity.ClientID()
	}
	log.Info("host identity resolved",
		"host", identity.Host,
		"ip", identity.IPAddress,
		"mac", identity.MACAddress,
		"client_id", clientID,
	)

	record := telemetry.NewRecord(identity,
		cfg.MQTT.Broker.Address,
		cfg.MQTT.Broker.Port,
		cfg.Telemetry.Notes,
	)

	// Connect to MQTT broker
	mqttClient := mqtt.New(cfg.MQTT, clientID)
	mqttClient.SetLogger(log)
	mqttClient.SetListener(&connectionLogger{log: log})

	if err := mqttClient.Connect(); err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Address, cfg.MQTT.Broker.Port),
		"client_id", clientID,
	)

	// Build the agent with its metric providers
	a, err := agent.New(agent.Options{
		Config:    cfg,
		Broker:    mqttClient,
		Providers: []telemetry.Provider{telemetry.NewCPUTemperature()},
		Record:    record,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("creating agent: %w", err)
	}

	log.Info("agent starting",
		"publish_topic", cfg.Topics.Publish,
		"control_topic", cfg.Topics.Control,
		"interval", cfg.PublishInterval().String(),
		"qos", cfg.MQTT.QoS,
	)

	// Blocks until the context is cancelled or the reconnect budget runs out.
	// The deferred MQTT Close runs on every exit path.
	if err := a.Run(ctx); err != nil {
		return err
	}

	log.Info("statmq stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Precedence: first CLI argument, then STATMQ_CONFIG, then the default.
func getConfigPath() string {
	if len(os.Args) > 1 && os.Args[1] != "" {
		return os.Args[1]
	}
	if path := os.Getenv("STATMQ_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectionLogger logs connection lifecycle events from the MQTT transport.
type connectionLogger struct {
	log *logging.Logger
}

func (c *connectionLogger) OnConnect() {
	c.log.Info("MQTT session established")
}

func (c *connectionLogger) OnDisconnect(err error) {
	c.log.Warn("MQTT session lost", "error", err)
}
