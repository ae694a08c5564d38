// internal/config/normalize.go
package config

// Normalize fills in defaults for omitted values.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ---- serial ----
	// Port stays empty: empty means USB discovery at connect time.

	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 115200
	}
	if cfg.Serial.ReconnectIntervalMs == 0 {
		cfg.Serial.ReconnectIntervalMs = 5000
	}
	if cfg.Serial.CommandTimeoutMs == 0 {
		cfg.Serial.CommandTimeoutMs = 2000
	}
	if cfg.Serial.FailureThreshold == 0 {
		cfg.Serial.FailureThreshold = 3
	}

	// ---- mqtt ----

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "automation-gateway"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "automation"
	}
	if cfg.MQTT.PublishIntervalMs == 0 {
		cfg.MQTT.PublishIntervalMs = 1000
	}
	if cfg.MQTT.ReconnectIntervalMs == 0 {
		cfg.MQTT.ReconnectIntervalMs = 15000
	}

	// ---- http ----

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.StaticDir == "" {
		cfg.HTTP.StaticDir = "web"
	}

	// ---- board ----

	if cfg.Board.Variant == "" {
		cfg.Board.Variant = "standard"
	}

	// ---- logging ----

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
