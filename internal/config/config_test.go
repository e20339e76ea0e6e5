package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.PubSubAuthority != "127.0.0.1:50051" {
		t.Errorf("unexpected default PubSubAuthority: %s", cfg.PubSubAuthority)
	}
	if cfg.MessagingURI != "mqtt://127.0.0.1:1883" {
		t.Errorf("unexpected default MessagingURI: %s", cfg.MessagingURI)
	}
	if cfg.CleanupInterval() != 5*time.Second {
		t.Errorf("unexpected default cleanup interval: %v", cfg.CleanupInterval())
	}
	if cfg.StaleThreshold() != 30*time.Second {
		t.Errorf("unexpected default stale threshold: %v", cfg.StaleThreshold())
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("expected defaults for a missing file, got %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topicgate.yaml")
	doc := `
pub_sub_authority: "0.0.0.0:9000"
messaging_uri: "mqtt://broker:1883"
cleanup_interval_secs: 10
log_level: "debug"
log_json: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.PubSubAuthority != "0.0.0.0:9000" {
		t.Errorf("unexpected PubSubAuthority: %s", cfg.PubSubAuthority)
	}
	if cfg.MessagingURI != "mqtt://broker:1883" {
		t.Errorf("unexpected MessagingURI: %s", cfg.MessagingURI)
	}
	if cfg.CleanupInterval() != 10*time.Second {
		t.Errorf("unexpected cleanup interval: %v", cfg.CleanupInterval())
	}
	if !cfg.LogJSON {
		t.Error("expected log_json to be true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unexpected log level: %s", cfg.LogLevel)
	}

	// Fields not present in the document keep their defaults.
	if cfg.MetricsAddr != Defaults().MetricsAddr {
		t.Errorf("unexpected MetricsAddr: %s", cfg.MetricsAddr)
	}
}

func TestLoadMalformedYAMLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topicgate.yaml")
	if err := os.WriteFile(path, []byte("pub_sub_authority: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}
