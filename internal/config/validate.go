// internal/config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values mean "use the default" and are filled in by Normalize.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	// ---- serial ----

	if cfg.Serial.Baud < 0 {
		return fmt.Errorf("serial: baud must be positive, got %d", cfg.Serial.Baud)
	}
	if cfg.Serial.ReconnectIntervalMs < 0 {
		return fmt.Errorf("serial: reconnect_interval_ms must be positive, got %d", cfg.Serial.ReconnectIntervalMs)
	}
	if cfg.Serial.CommandTimeoutMs < 0 {
		return fmt.Errorf("serial: command_timeout_ms must be positive, got %d", cfg.Serial.CommandTimeoutMs)
	}
	if cfg.Serial.FailureThreshold < 0 {
		return fmt.Errorf("serial: failure_threshold must be positive, got %d", cfg.Serial.FailureThreshold)
	}

	// ---- mqtt ----

	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker is required")
	}
	if cfg.MQTT.PublishIntervalMs < 0 {
		return fmt.Errorf("mqtt: publish_interval_ms must be positive, got %d", cfg.MQTT.PublishIntervalMs)
	}
	if cfg.MQTT.ReconnectIntervalMs < 0 {
		return fmt.Errorf("mqtt: reconnect_interval_ms must be positive, got %d", cfg.MQTT.ReconnectIntervalMs)
	}
	if cfg.MQTT.Username == "" && cfg.MQTT.Password != "" {
		return fmt.Errorf("mqtt: password is set but username is empty")
	}

	// ---- http ----

	if cfg.HTTP.Port < 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("http: port %d out of range", cfg.HTTP.Port)
	}

	// ---- board ----

	switch cfg.Board.Variant {
	case "", "standard", "mini":
	default:
		return fmt.Errorf("board: unknown variant %q (want standard or mini)", cfg.Board.Variant)
	}

	// ---- logging ----

	switch cfg.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging: unknown format %q (want json or console)", cfg.Logging.Format)
	}

	return nil
}
