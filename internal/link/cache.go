// internal/link/cache.go
package link

import (
	"sync"

	"github.com/tamzrod/automation-gateway/internal/board"
	"github.com/tamzrod/automation-gateway/internal/protocol"
)

// Commanded is the last value written to each write-only channel. The
// firmware offers no read-back for relays, outputs and LEDs between
// polls, so the gateway's own last command is authoritative until the
// next STATUS or a RESET (a known, accepted approximation: if the board
// power-cycles on its own, this desynchronizes until a RESET).
type Commanded struct {
	Relays  []bool
	Outputs []int
	LEDA    int
	LEDB    int
}

type writeCache struct {
	mu  sync.Mutex
	cur Commanded
}

func newWriteCache(v board.Variant) *writeCache {
	return &writeCache{cur: Commanded{
		Relays:  make([]bool, v.Relays),
		Outputs: make([]int, v.Outputs),
	}}
}

// apply records a successfully executed command. RESET returns every
// channel to the safe state.
func (c *writeCache) apply(cmd protocol.Command) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case cmd.Verb == "RESET":
		for i := range c.cur.Relays {
			c.cur.Relays[i] = false
		}
		for i := range c.cur.Outputs {
			c.cur.Outputs[i] = 0
		}
		c.cur.LEDA = 0
		c.cur.LEDB = 0

	case !cmd.Write:
		// queries leave the cache alone

	case cmd.Verb == "RELAY":
		c.cur.Relays[cmd.Channel] = cmd.Value != 0

	case cmd.Verb == "OUTPUT":
		c.cur.Outputs[cmd.Channel] = cmd.Value

	case cmd.Verb == "LED":
		if cmd.Button == protocol.ButtonA {
			c.cur.LEDA = cmd.Value
		} else {
			c.cur.LEDB = cmd.Value
		}
	}
}

func (c *writeCache) snapshot() Commanded {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.cur
	out.Relays = append([]bool(nil), c.cur.Relays...)
	out.Outputs = append([]int(nil), c.cur.Outputs...)
	return out
}
