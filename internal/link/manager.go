// internal/link/manager.go
package link

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tamzrod/automation-gateway/internal/board"
	"github.com/tamzrod/automation-gateway/internal/protocol"
	"github.com/tamzrod/automation-gateway/internal/state"
)

// Config is the manager's immutable runtime config.
type Config struct {
	// Device is the explicit serial device path. Empty means auto-detect.
	Device string
	// Baud is the serial line rate.
	Baud int
	// ReconnectInterval is the constant backoff between connect attempts.
	ReconnectInterval time.Duration
	// CommandTimeout bounds one command's request/response cycle.
	CommandTimeout time.Duration
	// FailureThreshold is the consecutive-failure count that degrades the
	// link and forces a reconnect.
	FailureThreshold int
	// Variant fixes channel counts for the write cache.
	Variant board.Variant
}

type outcome struct {
	res protocol.Result
	err error
}

type pending struct {
	cmd  protocol.Command
	done chan outcome
}

// Manager owns the physical connection to the board. It reconnects with
// backoff, executes submitted commands strictly one at a time, and tracks
// the connection state machine. Exactly one Run loop owns the port; all
// other components talk to the board through Submit only.
type Manager struct {
	cfg    Config
	dialer Dialer
	errs   *state.ErrorCounter
	log    zerolog.Logger

	queue chan *pending
	st    atomic.Int32
	cache *writeCache

	mu       sync.Mutex
	device   string
	version  string
	lastOK   time.Time
	failures int
}

// NewManager wires a manager. A nil dialer selects the real USB serial
// dialer.
func NewManager(cfg Config, dialer Dialer, errs *state.ErrorCounter, log zerolog.Logger) (*Manager, error) {
	if cfg.Baud <= 0 {
		return nil, errors.New("link: baud rate must be > 0")
	}
	if cfg.CommandTimeout <= 0 {
		return nil, errors.New("link: command timeout must be > 0")
	}
	if cfg.ReconnectInterval <= 0 {
		return nil, errors.New("link: reconnect interval must be > 0")
	}
	if cfg.FailureThreshold <= 0 {
		return nil, errors.New("link: failure threshold must be > 0")
	}
	if dialer == nil {
		dialer = NewSerialDialer()
	}
	return &Manager{
		cfg:    cfg,
		dialer: dialer,
		errs:   errs,
		log:    log,
		queue:  make(chan *pending, 16),
		cache:  newWriteCache(cfg.Variant),
	}, nil
}

// State returns the current connection state.
func (m *Manager) State() State {
	return State(m.st.Load())
}

// Device returns the resolved device path of the current or most recent
// connection.
func (m *Manager) Device() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device
}

// FirmwareVersion returns the VERSION string read at connect time.
func (m *Manager) FirmwareVersion() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// LastSuccess returns the time of the last successful command.
func (m *Manager) LastSuccess() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOK
}

// LastCommanded returns the cached write-only channel values.
func (m *Manager) LastCommanded() Commanded {
	return m.cache.snapshot()
}

func (m *Manager) setState(s State) {
	old := State(m.st.Swap(int32(s)))
	if old != s {
		m.log.Info().Stringer("from", old).Stringer("to", s).Msg("serial link state changed")
	}
}

// Submit sends one command to the board and waits for its response, the
// command timeout, or ctx. Callers from REST, MQTT and the poller all
// funnel through here; execution is FIFO with exactly one command open on
// the wire at any time. While the link is down it fails fast with
// ErrLinkDown and writes nothing.
func (m *Manager) Submit(ctx context.Context, cmd protocol.Command) (protocol.Result, error) {
	if err := ctx.Err(); err != nil {
		return protocol.Result{}, err
	}
	if m.State() != StateConnected {
		return protocol.Result{}, ErrLinkDown
	}

	p := &pending{cmd: cmd, done: make(chan outcome, 1)}

	select {
	case m.queue <- p:
	case <-ctx.Done():
		return protocol.Result{}, ctx.Err()
	}

	select {
	case out := <-p.done:
		return out.res, out.err
	case <-ctx.Done():
		return protocol.Result{}, ctx.Err()
	}
}

// Run drives the connection state machine until ctx is cancelled:
// Disconnected -> Connecting -> Connected -> (Degraded on repeated
// failure) -> Disconnected -> Connecting ...
func (m *Manager) Run(ctx context.Context) {
	for ctx.Err() == nil {
		m.setState(StateConnecting)

		port, err := m.connect(ctx)
		if err != nil {
			// only context cancellation stops the connect loop
			break
		}

		m.setState(StateConnected)
		m.serve(ctx, port)

		if err := port.Close(); err != nil {
			m.log.Warn().Err(err).Msg("closing serial port")
		}
		m.setState(StateDisconnected)
		m.drain()
	}
	m.setState(StateDisconnected)
	m.drain()
}

// connect tries candidate devices until one opens and answers the PING
// handshake, retrying forever at the configured interval.
func (m *Manager) connect(ctx context.Context) (Port, error) {
	var port Port

	attempt := func() error {
		paths := []string{m.cfg.Device}
		if m.cfg.Device == "" {
			discovered, err := m.dialer.Discover()
			if err != nil {
				return err
			}
			paths = discovered
		}

		var lastErr error
		for _, path := range paths {
			p, err := m.dialer.Open(path, m.cfg.Baud)
			if err != nil {
				lastErr = err
				continue
			}
			version, err := m.handshake(p)
			if err != nil {
				_ = p.Close()
				lastErr = fmt.Errorf("link: handshake on %s: %w", path, err)
				continue
			}

			m.mu.Lock()
			m.device = path
			m.version = version
			m.failures = 0
			m.mu.Unlock()

			m.log.Info().Str("device", path).Str("firmware", version).Msg("board connected")
			port = p
			return nil
		}
		return lastErr
	}

	bo := backoff.WithContext(backoff.NewConstantBackOff(m.cfg.ReconnectInterval), ctx)
	notify := func(err error, next time.Duration) {
		m.log.Debug().Err(err).Dur("retry_in", next).Msg("board connect failed")
	}
	if err := backoff.RetryNotify(attempt, bo, notify); err != nil {
		return nil, err
	}
	return port, nil
}

// handshake verifies the device speaks the protocol: PING must answer
// PONG, then the firmware version is recorded.
func (m *Manager) handshake(port Port) (string, error) {
	res, err := m.execute(port, protocol.Ping())
	if err != nil {
		return "", err
	}
	if res.Kind != protocol.KindValue || res.Value != "PONG" {
		return "", fmt.Errorf("%w: unexpected ping reply", protocol.ErrMalformed)
	}

	res, err = m.execute(port, protocol.Version())
	if err != nil {
		return "", err
	}
	if res.Kind != protocol.KindValue {
		return "", fmt.Errorf("%w: unexpected version reply", protocol.ErrMalformed)
	}
	return res.Value, nil
}

// serve executes queued commands one at a time until the failure
// threshold degrades the link or ctx ends.
func (m *Manager) serve(ctx context.Context, port Port) {
	for {
		select {
		case <-ctx.Done():
			return

		case p := <-m.queue:
			res, err := m.execute(port, p.cmd)
			p.done <- outcome{res: res, err: err}

			if err == nil {
				m.linkHealthy()
				m.cache.apply(p.cmd)
				continue
			}

			var derr *protocol.DeviceError
			if errors.As(err, &derr) {
				// the board answered; the command failed on its own
				// merits, so the link itself is fine
				m.linkHealthy()
				continue
			}

			// I/O error, timeout or malformed framing: a link fault
			if m.errs != nil {
				m.errs.Inc()
			}
			m.mu.Lock()
			m.failures++
			failures := m.failures
			m.mu.Unlock()

			m.log.Warn().Err(err).Int("consecutive_failures", failures).Msg("command failed on serial link")

			if failures >= m.cfg.FailureThreshold {
				m.setState(StateDegraded)
				return
			}
		}
	}
}

func (m *Manager) linkHealthy() {
	m.mu.Lock()
	m.failures = 0
	m.lastOK = time.Now()
	m.mu.Unlock()
}

// execute runs exactly one request/response cycle on the wire.
func (m *Manager) execute(port Port, cmd protocol.Command) (protocol.Result, error) {
	deadline := time.Now().Add(m.cfg.CommandTimeout)

	if _, err := port.Write([]byte(cmd.Line())); err != nil {
		return protocol.Result{}, fmt.Errorf("link: write: %w", err)
	}

	for {
		line, err := readLine(port, deadline)
		if err != nil {
			return protocol.Result{}, err
		}
		if protocol.IsNoise(line) {
			continue
		}
		res, err := protocol.Decode(m.cfg.Variant, line)
		if err != nil {
			var derr *protocol.DeviceError
			if errors.As(err, &derr) {
				return protocol.Result{}, err
			}
			return protocol.Result{}, fmt.Errorf("link: %w", err)
		}
		return res, nil
	}
}

// readLine reads one newline-terminated line, byte-wise, bounded by the
// deadline. A zero-byte read from the port means its read timeout fired.
func readLine(port Port, deadline time.Time) (string, error) {
	var buf []byte
	b := make([]byte, 1)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", ErrTimeout
		}
		if err := port.SetReadTimeout(remaining); err != nil {
			return "", fmt.Errorf("link: set read timeout: %w", err)
		}

		n, err := port.Read(b)
		if err != nil {
			return "", fmt.Errorf("link: read: %w", err)
		}
		if n == 0 {
			return "", ErrTimeout
		}
		if b[0] == '\n' {
			return string(buf), nil
		}
		if b[0] != '\r' {
			buf = append(buf, b[0])
		}
	}
}

// drain fails every still-queued command with ErrLinkDown.
func (m *Manager) drain() {
	for {
		select {
		case p := <-m.queue:
			p.done <- outcome{err: ErrLinkDown}
		default:
			return
		}
	}
}
