package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinPublishInterval is the lowest publish interval the agent accepts,
// in seconds. Both startup validation and the changeTelemetryInterval
// command enforce intervals strictly greater than this value.
const MinPublishInterval = 4

// Config is the root configuration structure for the statmq agent.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Topics    TopicsConfig    `yaml:"topics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
//
// ClientID is optional; when empty the agent uses the host's MAC address
// (or a generated UUID if no usable interface exists).
type MQTTBrokerConfig struct {
	Address  string `yaml:"address"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains reconnection behaviour settings.
//
// QuiesceDelay is the fixed wait before the supervising loop begins a
// reconnect attempt, so a flapping broker is not flooded. InitialDelay and
// MaxDelay bound the exponential backoff between attempts, and Timeout caps
// the total time spent reconnecting before the agent gives up and exits.
// All values are in seconds.
type MQTTReconnectConfig struct {
	QuiesceDelay int `yaml:"quiesce_delay"`
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	Timeout      int `yaml:"timeout"`
}

// TopicsConfig contains the two topics the agent talks on.
type TopicsConfig struct {
	// Publish is the topic telemetry records are published to.
	Publish string `yaml:"publish"`

	// Control is the topic the agent subscribes to for inbound commands.
	Control string `yaml:"control"`
}

// TelemetryConfig contains sampling and publishing settings.
type TelemetryConfig struct {
	// PublishInterval is the number of seconds between scheduled publishes.
	// Must be greater than MinPublishInterval. This is the only configuration
	// value mutable at runtime (via the changeTelemetryInterval command).
	PublishInterval int `yaml:"publish_interval"`

	// Notes is free-form text copied into every telemetry record.
	Notes string `yaml:"notes"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: STATMQ_SECTION_KEY
// For example: STATMQ_MQTT_ADDRESS, STATMQ_MQTT_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Address: "localhost",
				Port:    1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				QuiesceDelay: 3,
				InitialDelay: 1,
				MaxDelay:     8,
				Timeout:      30,
			},
		},
		Telemetry: TelemetryConfig{
			PublishInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: STATMQ_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STATMQ_MQTT_ADDRESS"); v != "" {
		cfg.MQTT.Broker.Address = v
	}
	if v := os.Getenv("STATMQ_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("STATMQ_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("STATMQ_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("STATMQ_TOPICS_PUBLISH"); v != "" {
		cfg.Topics.Publish = v
	}
	if v := os.Getenv("STATMQ_TOPICS_CONTROL"); v != "" {
		cfg.Topics.Control = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.Broker.Address == "" {
		errs = append(errs, "mqtt.broker.address is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Topics.Publish == "" {
		errs = append(errs, "topics.publish is required")
	}
	if c.Topics.Control == "" {
		errs = append(errs, "topics.control is required")
	}

	if c.Telemetry.PublishInterval <= MinPublishInterval {
		errs = append(errs, fmt.Sprintf("telemetry.publish_interval must be greater than %d seconds", MinPublishInterval))
	}

	if c.MQTT.Reconnect.InitialDelay < 1 {
		errs = append(errs, "mqtt.reconnect.initial_delay must be at least 1 second")
	}
	if c.MQTT.Reconnect.MaxDelay < c.MQTT.Reconnect.InitialDelay {
		errs = append(errs, "mqtt.reconnect.max_delay must be >= mqtt.reconnect.initial_delay")
	}
	if c.MQTT.Reconnect.Timeout < 1 {
		errs = append(errs, "mqtt.reconnect.timeout must be at least 1 second")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// PublishInterval returns the telemetry publish interval as a Duration.
func (c *Config) PublishInterval() time.Duration {
	return time.Duration(c.Telemetry.PublishInterval) * time.Second
}

// QuiesceDelay returns the pre-reconnect quiescent wait as a Duration.
func (c *Config) QuiesceDelay() time.Duration {
	return time.Duration(c.MQTT.Reconnect.QuiesceDelay) * time.Second
}
