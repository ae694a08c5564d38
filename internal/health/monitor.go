// internal/health/monitor.go
package health

import (
	"time"

	"github.com/tamzrod/automation-gateway/internal/link"
	"github.com/tamzrod/automation-gateway/internal/state"
)

// BoardLink is the slice of the serial manager the monitor reads.
type BoardLink interface {
	State() link.State
	Device() string
	FirmwareVersion() string
}

// Broker is the slice of the MQTT bridge the monitor reads.
type Broker interface {
	Connected() bool
}

// Info carries the static identity shown in every report.
type Info struct {
	MQTTBroker      string
	MQTTTopicPrefix string
}

// Monitor aggregates liveness across the gateway's moving parts.
type Monitor struct {
	started time.Time
	info    Info
	board   BoardLink
	broker  Broker
	store   *state.Store
	errs    *state.ErrorCounter
}

func NewMonitor(info Info, board BoardLink, broker Broker, store *state.Store, errs *state.ErrorCounter) *Monitor {
	return &Monitor{
		started: time.Now(),
		info:    info,
		board:   board,
		broker:  broker,
		store:   store,
		errs:    errs,
	}
}

// Report is the health endpoint payload.
type Report struct {
	Status          string  `json:"status"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	BoardConnected  bool    `json:"board_connected"`
	BoardState      string  `json:"board_state"`
	BoardPort       string  `json:"board_port,omitempty"`
	Firmware        string  `json:"firmware,omitempty"`
	MQTTConnected   bool    `json:"mqtt_connected"`
	MQTTBroker      string  `json:"mqtt_broker"`
	MQTTTopicPrefix string  `json:"mqtt_topic_prefix"`
	ErrorCount      uint64  `json:"error_count"`
	SnapshotAgeMs   int64   `json:"snapshot_age_ms"`
	LastUpdate      string  `json:"last_update"`
}

// Report takes a point-in-time reading. The gateway is degraded, not
// unhealthy, while the board is unplugged: the API and MQTT sides keep
// serving the last known state.
func (m *Monitor) Report() Report {
	now := time.Now()

	boardUp := m.board.State() == link.StateConnected

	r := Report{
		Status:          "healthy",
		UptimeSeconds:   now.Sub(m.started).Seconds(),
		BoardConnected:  boardUp,
		BoardState:      m.board.State().String(),
		BoardPort:       m.board.Device(),
		Firmware:        m.board.FirmwareVersion(),
		MQTTConnected:   m.broker.Connected(),
		MQTTBroker:      m.info.MQTTBroker,
		MQTTTopicPrefix: m.info.MQTTTopicPrefix,
		LastUpdate:      now.Format(time.RFC3339),
	}
	if !boardUp {
		r.Status = "degraded"
	}
	if m.errs != nil {
		r.ErrorCount = m.errs.Value()
	}
	if _, age, ok := m.store.Read(); ok {
		r.SnapshotAgeMs = age.Milliseconds()
	} else {
		r.SnapshotAgeMs = -1
	}
	return r
}
