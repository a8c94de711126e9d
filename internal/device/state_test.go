package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdapterState_String(t *testing.T) {
	assert.Equal(t, "PoweredOn", StatePoweredOn.String())
	assert.Equal(t, "PoweredOff", StatePoweredOff.String())
	assert.Equal(t, "Unauthorized", StateUnauthorized.String())
	assert.Equal(t, "Unknown", AdapterState(42).String())

	assert.True(t, StatePoweredOn.Ready())
	assert.False(t, StateResetting.Ready())
}

func TestStateBroadcaster(t *testing.T) {
	t.Run("replays current state on subscribe", func(t *testing.T) {
		b := NewStateBroadcaster()
		b.Publish(StatePoweredOn)

		var got []AdapterState
		sub := b.Subscribe(func(s AdapterState) { got = append(got, s) }, true)
		defer sub.Remove()

		assert.Equal(t, []AdapterState{StatePoweredOn}, got)
	})

	t.Run("no replay without emitCurrent", func(t *testing.T) {
		b := NewStateBroadcaster()

		var got []AdapterState
		b.Subscribe(func(s AdapterState) { got = append(got, s) }, false)

		assert.Empty(t, got)
	})

	t.Run("publishes only changes", func(t *testing.T) {
		b := NewStateBroadcaster()

		var got []AdapterState
		b.Subscribe(func(s AdapterState) { got = append(got, s) }, false)

		b.Publish(StatePoweredOff)
		b.Publish(StatePoweredOff)
		b.Publish(StatePoweredOn)

		assert.Equal(t, []AdapterState{StatePoweredOff, StatePoweredOn}, got)
		assert.Equal(t, StatePoweredOn, b.State())
	})

	t.Run("remove stops delivery and is idempotent", func(t *testing.T) {
		b := NewStateBroadcaster()

		calls := 0
		sub := b.Subscribe(func(AdapterState) { calls++ }, false)
		assert.Equal(t, 1, b.Len())

		sub.Remove()
		sub.Remove()
		b.Publish(StatePoweredOn)

		assert.Equal(t, 0, calls)
		assert.Equal(t, 0, b.Len())
	})
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "", DisplayName(nil))
}
