// internal/link/manager_test.go
package link

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/automation-gateway/internal/board"
	"github.com/tamzrod/automation-gateway/internal/protocol"
	"github.com/tamzrod/automation-gateway/internal/state"
)

const statusLine = `{"relays": [false, false, false], "outputs": [0, 0, 0],` +
	` "inputs": [false, false, false, false], "adcs": [0.0, 0.0, 0.0],` +
	` "buttons": {"a": false, "b": false}}`

// fakePort scripts the board end of the wire. Read yields one byte at a
// time; an empty buffer reads as a timeout (0, nil), matching the real
// port's read-timeout semantics.
type fakePort struct {
	mu          sync.Mutex
	respond     func(line string) string
	written     []string
	rbuf        []byte
	closed      bool
	interleaved bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("port closed")
	}
	if len(p.rbuf) > 0 {
		// a new request arrived before the previous response was
		// fully consumed: two commands were in flight at once
		p.interleaved = true
	}
	line := strings.TrimSuffix(string(b), "\n")
	p.written = append(p.written, line)
	if p.respond != nil {
		p.rbuf = append(p.rbuf, []byte(p.respond(line))...)
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("port closed")
	}
	if len(p.rbuf) == 0 {
		return 0, nil
	}
	n := copy(b, p.rbuf[:1])
	p.rbuf = p.rbuf[1:]
	return n, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }

func (p *fakePort) lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.written...)
}

func (p *fakePort) countWrites(verb string) int {
	n := 0
	for _, l := range p.lines() {
		if strings.HasPrefix(l, verb) {
			n++
		}
	}
	return n
}

type fakeDialer struct {
	port *fakePort
}

func (d *fakeDialer) Discover() ([]string, error) { return []string{"/dev/ttyFAKE0"}, nil }

func (d *fakeDialer) Open(string, int) (Port, error) {
	d.port.mu.Lock()
	defer d.port.mu.Unlock()
	d.port.closed = false
	d.port.rbuf = nil
	return d.port, nil
}

func healthyBoard(line string) string {
	switch {
	case line == "PING":
		return "# Ready\nOK PONG\n"
	case line == "VERSION":
		return "OK 1.2.3\n"
	case line == "STATUS":
		return statusLine + "\n"
	case strings.HasSuffix(line, "?"):
		return "OK ON\n"
	default:
		return "OK\n"
	}
}

func testConfig() Config {
	return Config{
		Baud:              115200,
		ReconnectInterval: 5 * time.Millisecond,
		CommandTimeout:    100 * time.Millisecond,
		FailureThreshold:  2,
		Variant:           board.Standard,
	}
}

func startManager(t *testing.T, port *fakePort) (*Manager, context.CancelFunc) {
	t.Helper()

	m, err := NewManager(testConfig(), &fakeDialer{port: port}, &state.ErrorCounter{}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	return m, cancel
}

func waitState(t *testing.T, m *Manager, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return m.State() == want },
		2*time.Second, time.Millisecond, "waiting for state %s", want)
}

func TestManager_ConnectAndSubmit(t *testing.T) {
	port := &fakePort{respond: healthyBoard}
	m, cancel := startManager(t, port)
	defer cancel()

	waitState(t, m, StateConnected)
	assert.Equal(t, "1.2.3", m.FirmwareVersion())
	assert.Equal(t, "/dev/ttyFAKE0", m.Device())

	cmd, err := protocol.SetRelay(board.Standard, 0, true)
	require.NoError(t, err)

	res, err := m.Submit(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, protocol.KindOK, res.Kind)
	assert.Contains(t, port.lines(), "RELAY 1 ON")
}

func TestSubmit_LinkDownFailsFastWithoutWriting(t *testing.T) {
	port := &fakePort{respond: healthyBoard}
	m, err := NewManager(testConfig(), &fakeDialer{port: port}, &state.ErrorCounter{}, zerolog.Nop())
	require.NoError(t, err)

	// Run never started: the manager is Disconnected
	cmd, err := protocol.SetRelay(board.Standard, 0, true)
	require.NoError(t, err)

	_, err = m.Submit(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrLinkDown)
	assert.Empty(t, port.lines(), "no bytes may reach the wire while disconnected")
}

func TestManager_StatusSubmit(t *testing.T) {
	port := &fakePort{respond: healthyBoard}
	m, cancel := startManager(t, port)
	defer cancel()
	waitState(t, m, StateConnected)

	res, err := m.Submit(context.Background(), protocol.Status())
	require.NoError(t, err)
	require.Equal(t, protocol.KindStatus, res.Kind)
	assert.Len(t, res.Status.Relays, 3)
	assert.Len(t, res.Status.Inputs, 4)
}

func TestManager_TimeoutDegradesAndReconnects(t *testing.T) {
	var silent bool
	var mu sync.Mutex

	port := &fakePort{}
	port.respond = func(line string) string {
		mu.Lock()
		defer mu.Unlock()
		if silent && (strings.HasPrefix(line, "RELAY") || strings.HasPrefix(line, "OUTPUT")) {
			return "" // the board went quiet for commands
		}
		return healthyBoard(line)
	}

	m, cancel := startManager(t, port)
	defer cancel()
	waitState(t, m, StateConnected)

	mu.Lock()
	silent = true
	mu.Unlock()

	cmd, err := protocol.SetRelay(board.Standard, 0, true)
	require.NoError(t, err)

	// threshold is 2: two timeouts force a reconnect cycle
	for i := 0; i < 2; i++ {
		_, err := m.Submit(context.Background(), cmd)
		require.Error(t, err)
	}

	mu.Lock()
	silent = false
	mu.Unlock()

	// the manager must come back on its own
	waitState(t, m, StateConnected)
	assert.GreaterOrEqual(t, port.countWrites("PING"), 2, "reconnect re-runs the handshake")
}

func TestManager_DeviceErrorIsNotALinkFault(t *testing.T) {
	port := &fakePort{}
	port.respond = func(line string) string {
		if strings.HasPrefix(line, "OUTPUT") {
			return "ERR Output index out of range (1-3)\n"
		}
		return healthyBoard(line)
	}

	m, cancel := startManager(t, port)
	defer cancel()
	waitState(t, m, StateConnected)

	cmd, err := protocol.SetOutput(board.Standard, 2, 50)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := m.Submit(context.Background(), cmd)
		var derr *protocol.DeviceError
		require.True(t, errors.As(err, &derr))
	}
	assert.Equal(t, StateConnected, m.State(), "device errors never tear down the link")
}

func TestManager_ResetClearsWriteCache(t *testing.T) {
	port := &fakePort{respond: healthyBoard}
	m, cancel := startManager(t, port)
	defer cancel()
	waitState(t, m, StateConnected)

	ctx := context.Background()

	relay, err := protocol.SetRelay(board.Standard, 1, true)
	require.NoError(t, err)
	_, err = m.Submit(ctx, relay)
	require.NoError(t, err)

	output, err := protocol.SetOutput(board.Standard, 0, 60)
	require.NoError(t, err)
	_, err = m.Submit(ctx, output)
	require.NoError(t, err)

	_, err = m.Submit(ctx, protocol.SetLED(protocol.ButtonA, 40))
	require.NoError(t, err)

	cached := m.LastCommanded()
	assert.True(t, cached.Relays[1])
	assert.Equal(t, 60, cached.Outputs[0])
	assert.Equal(t, 40, cached.LEDA)

	_, err = m.Submit(ctx, protocol.Reset())
	require.NoError(t, err)

	cached = m.LastCommanded()
	assert.Equal(t, []bool{false, false, false}, cached.Relays)
	assert.Equal(t, []int{0, 0, 0}, cached.Outputs)
	assert.Zero(t, cached.LEDA)
	assert.Zero(t, cached.LEDB)
}

func TestManager_ConcurrentSubmitsNeverInterleave(t *testing.T) {
	port := &fakePort{respond: healthyBoard}
	m, cancel := startManager(t, port)
	defer cancel()
	waitState(t, m, StateConnected)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(ch int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				cmd, err := protocol.SetRelay(board.Standard, ch%3, j%2 == 0)
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := m.Submit(context.Background(), cmd); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	port.mu.Lock()
	defer port.mu.Unlock()
	assert.False(t, port.interleaved, "only one command may be open on the wire")
}

func TestManager_SubmitHonorsContext(t *testing.T) {
	port := &fakePort{respond: healthyBoard}
	m, cancel := startManager(t, port)
	defer cancel()
	waitState(t, m, StateConnected)

	ctx, cancelSubmit := context.WithCancel(context.Background())
	cancelSubmit()

	_, err := m.Submit(ctx, protocol.Status())
	assert.ErrorIs(t, err, context.Canceled)
}
