// internal/state/store_test.go
package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/automation-gateway/internal/board"
)

func TestStore_EmptyUntilFirstUpdate(t *testing.T) {
	s := NewStore()
	_, _, ok := s.Read()
	assert.False(t, ok)
}

func TestStore_UpdateReplacesWholeSnapshot(t *testing.T) {
	s := NewStore()

	first := board.NewSnapshot(board.Standard)
	first.Relays[0] = true
	s.Update(first)

	second := board.NewSnapshot(board.Standard)
	second.Outputs[2] = 80
	s.Update(second)

	snap, age, ok := s.Read()
	require.True(t, ok)
	assert.False(t, snap.Relays[0], "previous state must not leak through")
	assert.Equal(t, 80, snap.Outputs[2])
	assert.Less(t, age, time.Second)
}

func TestStore_ReadReturnsIsolatedCopy(t *testing.T) {
	s := NewStore()
	s.Update(board.NewSnapshot(board.Mini))

	snap, _, ok := s.Read()
	require.True(t, ok)
	snap.Relays[0] = true

	again, _, _ := s.Read()
	assert.False(t, again.Relays[0], "caller mutation must not reach the store")
}

func TestErrorCounter(t *testing.T) {
	var c ErrorCounter
	assert.Equal(t, uint64(0), c.Value())
	c.Inc()
	c.Inc()
	assert.Equal(t, uint64(2), c.Value())
}
