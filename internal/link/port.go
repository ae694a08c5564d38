// internal/link/port.go
package link

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// picoVID is the USB vendor ID of the RP2040 boards the firmware runs on.
const picoVID = "2E8A"

// Port is the minimal serial handle the manager drives.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Dialer abstracts device discovery and opening so tests can script the
// board end of the wire.
type Dialer interface {
	// Discover returns candidate device paths, best match first.
	Discover() ([]string, error)
	// Open opens one candidate. One attempt, no retries.
	Open(path string, baud int) (Port, error)
}

// serialDialer is the production dialer on top of go.bug.st/serial.
type serialDialer struct{}

// NewSerialDialer returns the real USB serial dialer.
func NewSerialDialer() Dialer {
	return serialDialer{}
}

func (serialDialer) Discover() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("link: enumerate ports: %w", err)
	}

	var exact, loose []string
	for _, p := range ports {
		switch {
		case p.IsUSB && strings.EqualFold(p.VID, picoVID):
			exact = append(exact, p.Name)
		case strings.Contains(p.Name, "ACM") || strings.Contains(p.Name, "usbmodem"):
			loose = append(loose, p.Name)
		}
	}
	sort.Strings(exact)
	sort.Strings(loose)

	candidates := append(exact, loose...)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("link: no candidate serial devices found")
	}
	return candidates, nil
}

func (serialDialer) Open(path string, baud int) (Port, error) {
	p, err := serial.Open(path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", path, err)
	}
	return p, nil
}
