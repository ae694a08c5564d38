// internal/board/snapshot.go
package board

// Buttons holds the two front-panel button states.
type Buttons struct {
	A bool `json:"a"`
	B bool `json:"b"`
}

// Snapshot is one complete, self-consistent copy of all I/O states.
// It contains no logic and no memory of the past beyond current state.
// The JSON shape is wire-locked: it is exactly what the device emits for
// STATUS and what the gateway republishes on MQTT and REST.
type Snapshot struct {
	Relays  []bool    `json:"relays"`
	Outputs []int     `json:"outputs"`
	Inputs  []bool    `json:"inputs"`
	ADCs    []float64 `json:"adcs"`
	Buttons Buttons   `json:"buttons"`
}

// NewSnapshot returns an all-off snapshot sized for the variant.
func NewSnapshot(v Variant) Snapshot {
	return Snapshot{
		Relays:  make([]bool, v.Relays),
		Outputs: make([]int, v.Outputs),
		Inputs:  make([]bool, v.Inputs),
		ADCs:    make([]float64, v.ADCs),
	}
}

// Clone returns a deep copy so readers never share slice memory
// with the store's current snapshot.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Relays = append([]bool(nil), s.Relays...)
	c.Outputs = append([]int(nil), s.Outputs...)
	c.Inputs = append([]bool(nil), s.Inputs...)
	c.ADCs = append([]float64(nil), s.ADCs...)
	return c
}
