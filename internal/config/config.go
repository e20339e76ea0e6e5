// Package config loads topicgate's settings, collapsing the original
// service's two-file split (connection settings + communication constants)
// into one YAML document with command-line flag overrides layered on top.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every externally supplied setting topicgate needs to run.
// Zero values are filled in by Defaults before a YAML file or flags are
// applied.
type Config struct {
	// PubSubAuthority is the address:port the PubSub RPC server binds to.
	PubSubAuthority string `yaml:"pub_sub_authority"`
	// MessagingURI is the broker endpoint, e.g. "mqtt://localhost:1883".
	MessagingURI string `yaml:"messaging_uri"`
	// MetricsAddr is the address:port the ambient HTTP surface binds to.
	MetricsAddr string `yaml:"metrics_addr"`

	// TopicDeletionMessage is the sentinel payload published to a topic
	// immediately before its removal.
	TopicDeletionMessage string `yaml:"topic_deletion_message"`
	// CleanupIntervalSecs is how often the cleanup sweep runs.
	CleanupIntervalSecs uint `yaml:"cleanup_interval_secs"`
	// StaleThresholdSecs is how long a zero-subscriber topic may sit idle
	// before the sweep sends a Timeout reminder.
	StaleThresholdSecs uint `yaml:"stale_threshold_secs"`

	// BrokerControlTopic is where publisher-disconnect LWTs are observed.
	BrokerControlTopic string `yaml:"broker_control_topic"`
	// BrokerNotificationPrefix is the topic space subscribe/unsubscribe
	// notifications are read from.
	BrokerNotificationPrefix string `yaml:"broker_notification_prefix"`
	// BrokerClientID identifies the connector's own session on the broker.
	BrokerClientID string `yaml:"broker_client_id"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

// Defaults returns a Config populated with the compiled-in defaults, the
// lowest-precedence layer of settings loading.
func Defaults() Config {
	return Config{
		PubSubAuthority:          "127.0.0.1:50051",
		MessagingURI:             "mqtt://127.0.0.1:1883",
		MetricsAddr:              "127.0.0.1:9090",
		TopicDeletionMessage:     "TOPIC DELETED",
		CleanupIntervalSecs:      5,
		StaleThresholdSecs:       30,
		BrokerControlTopic:       "publisher/disconnect",
		BrokerNotificationPrefix: "$broker/notifications",
		BrokerClientID:           "topicgate",
		LogLevel:                 "info",
		LogJSON:                  false,
	}
}

// Load reads path (if it exists) and overlays its fields onto Defaults().
// A missing file is not an error — the service runs on compiled-in
// defaults plus whatever flags the caller applies afterward.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// CleanupInterval returns CleanupIntervalSecs as a time.Duration.
func (c Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSecs) * time.Second
}

// StaleThreshold returns StaleThresholdSecs as a time.Duration.
func (c Config) StaleThreshold() time.Duration {
	return time.Duration(c.StaleThresholdSecs) * time.Second
}
