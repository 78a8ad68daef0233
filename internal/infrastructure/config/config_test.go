package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
mqtt:
  broker:
    address: "broker.local"
    port: 1883
  qos: 2
topics:
  publish: "telemetry/office-pi"
  control: "telemetry/office-pi/control"
telemetry:
  publish_interval: 15
  notes: "rack 3, shelf 2"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Address != "broker.local" {
		t.Errorf("MQTT.Broker.Address = %q, want %q", cfg.MQTT.Broker.Address, "broker.local")
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("MQTT.QoS = %d, want 2", cfg.MQTT.QoS)
	}
	if cfg.Topics.Publish != "telemetry/office-pi" {
		t.Errorf("Topics.Publish = %q, want %q", cfg.Topics.Publish, "telemetry/office-pi")
	}
	if cfg.Telemetry.PublishInterval != 15 {
		t.Errorf("Telemetry.PublishInterval = %d, want 15", cfg.Telemetry.PublishInterval)
	}
	if cfg.Telemetry.Notes != "rack 3, shelf 2" {
		t.Errorf("Telemetry.Notes = %q, want %q", cfg.Telemetry.Notes, "rack 3, shelf 2")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
mqtt:
  broker:
    address: "broker.local"
topics:
  publish: ""
  control: "telemetry/control"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty publish topic, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Topics.Publish = "telemetry/host"
		cfg.Topics.Control = "telemetry/host/control"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing broker address",
			mutate:  func(c *Config) { c.MQTT.Broker.Address = "" },
			wantErr: "mqtt.broker.address",
		},
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 0 },
			wantErr: "mqtt.broker.port",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: "mqtt.broker.port",
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "missing publish topic",
			mutate:  func(c *Config) { c.Topics.Publish = "" },
			wantErr: "topics.publish",
		},
		{
			name:    "missing control topic",
			mutate:  func(c *Config) { c.Topics.Control = "" },
			wantErr: "topics.control",
		},
		{
			name:    "publish interval at minimum is rejected",
			mutate:  func(c *Config) { c.Telemetry.PublishInterval = MinPublishInterval },
			wantErr: "telemetry.publish_interval",
		},
		{
			name:    "publish interval below minimum",
			mutate:  func(c *Config) { c.Telemetry.PublishInterval = 2 },
			wantErr: "telemetry.publish_interval",
		},
		{
			name:    "reconnect max below initial",
			mutate:  func(c *Config) { c.MQTT.Reconnect.MaxDelay = 0 },
			wantErr: "mqtt.reconnect.max_delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("STATMQ_MQTT_ADDRESS", "mqtt.example.com")
	t.Setenv("STATMQ_MQTT_PORT", "8883")
	t.Setenv("STATMQ_MQTT_USERNAME", "testuser")
	t.Setenv("STATMQ_MQTT_PASSWORD", "testpass")
	t.Setenv("STATMQ_TOPICS_PUBLISH", "env/telemetry")
	t.Setenv("STATMQ_TOPICS_CONTROL", "env/control")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Address != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Address = %q, want %q", cfg.MQTT.Broker.Address, "mqtt.example.com")
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.Topics.Publish != "env/telemetry" {
		t.Errorf("Topics.Publish = %q, want %q", cfg.Topics.Publish, "env/telemetry")
	}
	if cfg.Topics.Control != "env/control" {
		t.Errorf("Topics.Control = %q, want %q", cfg.Topics.Control, "env/control")
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("STATMQ_MQTT_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want default 1883", cfg.MQTT.Broker.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Telemetry.PublishInterval <= MinPublishInterval {
		t.Errorf("defaultConfig Telemetry.PublishInterval = %d, want > %d",
			cfg.Telemetry.PublishInterval, MinPublishInterval)
	}
	if cfg.MQTT.Reconnect.QuiesceDelay == 0 {
		t.Error("defaultConfig should have a non-zero reconnect quiesce delay")
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{
		MQTT: MQTTConfig{
			Reconnect: MQTTReconnectConfig{QuiesceDelay: 3},
		},
		Telemetry: TelemetryConfig{PublishInterval: 10},
	}

	if got := cfg.PublishInterval().Seconds(); got != 10 {
		t.Errorf("PublishInterval() = %v, want 10", got)
	}
	if got := cfg.QuiesceDelay().Seconds(); got != 3 {
		t.Errorf("QuiesceDelay() = %v, want 3", got)
	}
}
