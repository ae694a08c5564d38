// internal/protocol/decode.go
package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/tamzrod/automation-gateway/internal/board"
)

// ErrMalformed marks a device response that does not parse. The link
// manager treats it as a transient link fault, never as state.
var ErrMalformed = fmt.Errorf("protocol: malformed response")

// DeviceError is an `ERR <message>` line reported by the firmware.
type DeviceError struct {
	Message string
}

func (e *DeviceError) Error() string { return "device: " + e.Message }

// Kind classifies a decoded response line.
type Kind int

const (
	// KindOK is a bare `OK` acknowledgement.
	KindOK Kind = iota
	// KindValue is `OK <value>` from a query.
	KindValue
	// KindStatus is the single-line STATUS JSON object.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindValue:
		return "value"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Result is one decoded response.
type Result struct {
	Kind   Kind
	Value  string          // query value, KindValue only
	Status *board.Snapshot // KindStatus only
}

// IsNoise reports whether a line carries no response: blank lines and
// `#`-prefixed device chatter (the firmware prints a `# Ready` banner on
// boot) are skipped, not decoded.
func IsNoise(line string) bool {
	line = strings.TrimSpace(line)
	return line == "" || strings.HasPrefix(line, "#")
}

// statusWire is the raw STATUS shape. Outputs arrive as floats
// (the firmware reports PWM duty rounded to one decimal).
type statusWire struct {
	Relays  []bool     `json:"relays"`
	Outputs []*float64 `json:"outputs"`
	Inputs  []bool     `json:"inputs"`
	ADCs    []*float64 `json:"adcs"`
	Buttons *struct {
		A *bool `json:"a"`
		B *bool `json:"b"`
	} `json:"buttons"`
}

// Decode classifies a response line. It is pure: no I/O, no blocking.
// STATUS payloads are validated against the variant's channel counts;
// any length or type mismatch fails decode rather than changing shape.
func Decode(v board.Variant, line string) (Result, error) {
	line = strings.TrimSpace(line)

	switch {
	case line == "OK":
		return Result{Kind: KindOK}, nil

	case strings.HasPrefix(line, "OK "):
		return Result{Kind: KindValue, Value: strings.TrimSpace(line[3:])}, nil

	case strings.HasPrefix(line, "ERR "):
		return Result{}, &DeviceError{Message: strings.TrimSpace(line[4:])}

	case strings.HasPrefix(line, "{"):
		snap, err := decodeStatus(v, line)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindStatus, Status: &snap}, nil

	default:
		return Result{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
}

func decodeStatus(v board.Variant, line string) (board.Snapshot, error) {
	var w statusWire

	dec := json.NewDecoder(strings.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return board.Snapshot{}, fmt.Errorf("%w: status json: %v", ErrMalformed, err)
	}

	if len(w.Relays) != v.Relays {
		return board.Snapshot{}, fmt.Errorf("%w: status has %d relays, variant %s expects %d", ErrMalformed, len(w.Relays), v.Name, v.Relays)
	}
	if len(w.Outputs) != v.Outputs {
		return board.Snapshot{}, fmt.Errorf("%w: status has %d outputs, variant %s expects %d", ErrMalformed, len(w.Outputs), v.Name, v.Outputs)
	}
	if len(w.Inputs) != v.Inputs {
		return board.Snapshot{}, fmt.Errorf("%w: status has %d inputs, variant %s expects %d", ErrMalformed, len(w.Inputs), v.Name, v.Inputs)
	}
	if len(w.ADCs) != v.ADCs {
		return board.Snapshot{}, fmt.Errorf("%w: status has %d adcs, variant %s expects %d", ErrMalformed, len(w.ADCs), v.Name, v.ADCs)
	}
	if w.Buttons == nil || w.Buttons.A == nil || w.Buttons.B == nil {
		return board.Snapshot{}, fmt.Errorf("%w: status buttons missing", ErrMalformed)
	}

	snap := board.NewSnapshot(v)
	copy(snap.Relays, w.Relays)
	copy(snap.Inputs, w.Inputs)
	snap.Buttons = board.Buttons{A: *w.Buttons.A, B: *w.Buttons.B}

	for i, p := range w.Outputs {
		if p == nil {
			return board.Snapshot{}, fmt.Errorf("%w: output %d is null", ErrMalformed, i+1)
		}
		pct := int(math.Round(*p))
		if pct < 0 || pct > 100 {
			return board.Snapshot{}, fmt.Errorf("%w: output %d value %v out of range", ErrMalformed, i+1, *p)
		}
		snap.Outputs[i] = pct
	}

	for i, p := range w.ADCs {
		if p == nil {
			return board.Snapshot{}, fmt.Errorf("%w: adc %d is null", ErrMalformed, i+1)
		}
		snap.ADCs[i] = *p
	}

	return snap, nil
}
