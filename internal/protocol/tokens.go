// internal/protocol/tokens.go
package protocol

import (
	"fmt"
	"strings"
)

// ParseBool accepts the wire protocol's boolean synonyms,
// case-insensitively. Queries normalize to ON/OFF, HIGH/LOW or
// PRESSED/RELEASED depending on the channel kind; writes additionally
// accept TRUE/FALSE and 1/0.
func ParseBool(tok string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(tok)) {
	case "ON", "TRUE", "HIGH", "1", "PRESSED":
		return true, nil
	case "OFF", "FALSE", "LOW", "0", "RELEASED":
		return false, nil
	default:
		return false, fmt.Errorf("%w: boolean token %q", ErrMalformed, tok)
	}
}

// FormatOnOff renders the write-side boolean form.
func FormatOnOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
