// internal/protocol/command.go
package protocol

import (
	"fmt"

	"github.com/tamzrod/automation-gateway/internal/board"
)

// ErrInvalidChannel marks a channel index outside the board variant's
// range. It is returned before any I/O happens.
var ErrInvalidChannel = fmt.Errorf("protocol: invalid channel")

// Button identifies one of the two front-panel buttons.
type Button string

const (
	ButtonA Button = "A"
	ButtonB Button = "B"
)

// ParseButton accepts "a"/"A"/"b"/"B".
func ParseButton(s string) (Button, error) {
	switch s {
	case "a", "A":
		return ButtonA, nil
	case "b", "B":
		return ButtonB, nil
	default:
		return "", fmt.Errorf("protocol: button must be A or B, got %q: %w", s, ErrInvalidChannel)
	}
}

// Command is one encoded wire command plus the metadata the link manager
// needs for its write-only-state cache. Channels are 0-based here and
// 1-based on the wire; the constructors do the translation.
type Command struct {
	Verb    string // RELAY, OUTPUT, INPUT, ADC, LED, BUTTON, STATUS, RESET, VERSION, PING, HELP
	Channel int    // 0-based channel index, -1 when not applicable
	Button  Button // set for LED/BUTTON commands
	Value   int    // commanded value for writes (relay 0/1, output/led percent)
	Write   bool   // true for the RELAY/OUTPUT/LED set forms

	line string
}

// Line returns the newline-terminated ASCII form issued on the wire.
func (c Command) Line() string { return c.line }

func checkChannel(kind string, ch, count int) error {
	if ch < 0 || ch >= count {
		return fmt.Errorf("protocol: %s index %d out of range 1-%d: %w", kind, ch+1, count, ErrInvalidChannel)
	}
	return nil
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// SetRelay builds `RELAY n ON|OFF`.
func SetRelay(v board.Variant, ch int, on bool) (Command, error) {
	if err := checkChannel("relay", ch, v.Relays); err != nil {
		return Command{}, err
	}
	val := 0
	if on {
		val = 1
	}
	return Command{
		Verb:    "RELAY",
		Channel: ch,
		Value:   val,
		Write:   true,
		line:    fmt.Sprintf("RELAY %d %s\n", ch+1, FormatOnOff(on)),
	}, nil
}

// QueryRelay builds `RELAY n?`.
func QueryRelay(v board.Variant, ch int) (Command, error) {
	if err := checkChannel("relay", ch, v.Relays); err != nil {
		return Command{}, err
	}
	return Command{Verb: "RELAY", Channel: ch, line: fmt.Sprintf("RELAY %d?\n", ch+1)}, nil
}

// SetOutput builds `OUTPUT n <0-100>`. Percent is clamped to [0,100]
// before encoding, mirroring the firmware's own clamp.
func SetOutput(v board.Variant, ch, percent int) (Command, error) {
	if err := checkChannel("output", ch, v.Outputs); err != nil {
		return Command{}, err
	}
	percent = clampPercent(percent)
	return Command{
		Verb:    "OUTPUT",
		Channel: ch,
		Value:   percent,
		Write:   true,
		line:    fmt.Sprintf("OUTPUT %d %d\n", ch+1, percent),
	}, nil
}

// QueryOutput builds `OUTPUT n?`.
func QueryOutput(v board.Variant, ch int) (Command, error) {
	if err := checkChannel("output", ch, v.Outputs); err != nil {
		return Command{}, err
	}
	return Command{Verb: "OUTPUT", Channel: ch, line: fmt.Sprintf("OUTPUT %d?\n", ch+1)}, nil
}

// QueryInput builds `INPUT n?`.
func QueryInput(v board.Variant, ch int) (Command, error) {
	if err := checkChannel("input", ch, v.Inputs); err != nil {
		return Command{}, err
	}
	return Command{Verb: "INPUT", Channel: ch, line: fmt.Sprintf("INPUT %d?\n", ch+1)}, nil
}

// QueryADC builds `ADC n?`.
func QueryADC(v board.Variant, ch int) (Command, error) {
	if err := checkChannel("adc", ch, v.ADCs); err != nil {
		return Command{}, err
	}
	return Command{Verb: "ADC", Channel: ch, line: fmt.Sprintf("ADC %d?\n", ch+1)}, nil
}

// SetLED builds `LED A|B <0-100>`. Brightness is clamped to [0,100].
func SetLED(btn Button, percent int) Command {
	percent = clampPercent(percent)
	return Command{
		Verb:    "LED",
		Channel: -1,
		Button:  btn,
		Value:   percent,
		Write:   true,
		line:    fmt.Sprintf("LED %s %d\n", btn, percent),
	}
}

// QueryButton builds `BUTTON A|B?`.
func QueryButton(btn Button) Command {
	return Command{Verb: "BUTTON", Channel: -1, Button: btn, line: fmt.Sprintf("BUTTON %s?\n", btn)}
}

func bare(verb string) Command {
	return Command{Verb: verb, Channel: -1, line: verb + "\n"}
}

// Status builds `STATUS`.
func Status() Command { return bare("STATUS") }

// Reset builds `RESET`.
func Reset() Command { return bare("RESET") }

// Version builds `VERSION`.
func Version() Command { return bare("VERSION") }

// Ping builds `PING`.
func Ping() Command { return bare("PING") }

// Help builds `HELP`.
func Help() Command { return bare("HELP") }
