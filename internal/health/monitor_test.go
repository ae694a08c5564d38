// internal/health/monitor_test.go
package health

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tamzrod/automation-gateway/internal/board"
	"github.com/tamzrod/automation-gateway/internal/link"
	"github.com/tamzrod/automation-gateway/internal/state"
)

type fakeBoard struct {
	state    link.State
	device   string
	firmware string
}

func (f *fakeBoard) State() link.State       { return f.state }
func (f *fakeBoard) Device() string          { return f.device }
func (f *fakeBoard) FirmwareVersion() string { return f.firmware }

type fakeBroker struct{ up bool }

func (f *fakeBroker) Connected() bool { return f.up }

func TestReport_AllUp(t *testing.T) {
	store := state.NewStore()
	store.Update(board.NewSnapshot(board.Standard))

	errs := &state.ErrorCounter{}
	errs.Inc()
	errs.Inc()

	m := NewMonitor(
		Info{MQTTBroker: "tcp://localhost:1883", MQTTTopicPrefix: "automation"},
		&fakeBoard{state: link.StateConnected, device: "/dev/ttyACM0", firmware: "1.2.3"},
		&fakeBroker{up: true},
		store, errs,
	)

	r := m.Report()
	assert.Equal(t, "healthy", r.Status)
	assert.True(t, r.BoardConnected)
	assert.Equal(t, "connected", r.BoardState)
	assert.Equal(t, "/dev/ttyACM0", r.BoardPort)
	assert.Equal(t, "1.2.3", r.Firmware)
	assert.True(t, r.MQTTConnected)
	assert.Equal(t, "tcp://localhost:1883", r.MQTTBroker)
	assert.Equal(t, "automation", r.MQTTTopicPrefix)
	assert.Equal(t, uint64(2), r.ErrorCount)
	assert.GreaterOrEqual(t, r.SnapshotAgeMs, int64(0))
	assert.GreaterOrEqual(t, r.UptimeSeconds, 0.0)
	assert.NotEmpty(t, r.LastUpdate)
}

func TestReport_BoardDown(t *testing.T) {
	m := NewMonitor(
		Info{MQTTBroker: "tcp://localhost:1883", MQTTTopicPrefix: "automation"},
		&fakeBoard{state: link.StateConnecting},
		&fakeBroker{up: false},
		state.NewStore(), nil,
	)

	r := m.Report()
	assert.Equal(t, "degraded", r.Status)
	assert.False(t, r.BoardConnected)
	assert.Equal(t, "connecting", r.BoardState)
	assert.False(t, r.MQTTConnected)
	assert.Equal(t, int64(-1), r.SnapshotAgeMs, "no snapshot yet")
}
