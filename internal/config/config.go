// internal/config/config.go
package config

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	Board   BoardConfig   `yaml:"board"`
	Logging LoggingConfig `yaml:"logging"`
}

// ---- SERIAL ----

type SerialConfig struct {
	// Port is the device path; empty means discover by USB id.
	Port                string `yaml:"port"`
	Baud                int    `yaml:"baud"`
	ReconnectIntervalMs int    `yaml:"reconnect_interval_ms"`
	CommandTimeoutMs    int    `yaml:"command_timeout_ms"`
	FailureThreshold    int    `yaml:"failure_threshold"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker              string `yaml:"broker"`
	ClientID            string `yaml:"client_id"`
	Username            string `yaml:"username"`
	Password            string `yaml:"password"`
	TopicPrefix         string `yaml:"topic_prefix"`
	PublishIntervalMs   int    `yaml:"publish_interval_ms"`
	ReconnectIntervalMs int    `yaml:"reconnect_interval_ms"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// ---- BOARD ----

type BoardConfig struct {
	Variant string `yaml:"variant"` // standard | mini
}

// ---- LOGGING ----

type LoggingConfig struct {
	Level  string `yaml:"level"`  // trace .. error
	Format string `yaml:"format"` // json | console
}
