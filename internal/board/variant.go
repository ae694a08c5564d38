// internal/board/variant.go
package board

import "fmt"

// Variant is a fixed channel-count configuration.
// These counts define the protocol geometry and MUST NOT be configurable
// beyond selecting a variant.
type Variant struct {
	Name    string
	Relays  int
	Outputs int
	Inputs  int
	ADCs    int
}

// Standard is the full-size board: 3 relays, 3 outputs, 4 inputs, 3 ADCs.
var Standard = Variant{Name: "standard", Relays: 3, Outputs: 3, Inputs: 4, ADCs: 3}

// Mini is the reduced board: 1 relay, 2 outputs, 2 inputs, 3 ADCs.
var Mini = Variant{Name: "mini", Relays: 1, Outputs: 2, Inputs: 2, ADCs: 3}

// VariantByName resolves a configured variant name.
func VariantByName(name string) (Variant, error) {
	switch name {
	case "standard":
		return Standard, nil
	case "mini":
		return Mini, nil
	default:
		return Variant{}, fmt.Errorf("board: unknown variant %q", name)
	}
}
