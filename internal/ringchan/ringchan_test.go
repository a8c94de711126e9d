package ringchan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingChannel_OverwritesOldest(t *testing.T) {
	rc := New[int](3)

	for i := 0; i < 10; i++ {
		rc.Send(i)
	}
	rc.Close()

	var got []int
	for v := range rc.C() {
		got = append(got, v)
	}

	assert.Equal(t, []int{7, 8, 9}, got)
	m := rc.Metrics()
	assert.Equal(t, int64(10), m.Written)
	assert.Equal(t, int64(7), m.Overwritten)
}

func TestRingChannel_SendReportsDrop(t *testing.T) {
	rc := New[string](1)

	assert.False(t, rc.Send("a"))
	assert.True(t, rc.Send("b"))

	v := <-rc.C()
	assert.Equal(t, "b", v)
}

func TestRingChannel_LenAndCap(t *testing.T) {
	rc := New[int](2)
	assert.Equal(t, 0, rc.Len())
	assert.Equal(t, 2, rc.Cap())

	rc.Send(1)
	rc.Send(2)
	rc.Send(3)
	assert.Equal(t, 2, rc.Len())
	assert.Equal(t, 2, rc.Cap())
}

func TestRingChannel_ConcurrentProducers(t *testing.T) {
	rc := New[int](8)

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				rc.Send(i)
			}
		}()
	}
	wg.Wait()

	m := rc.Metrics()
	require.Equal(t, int64(400), m.Written)
	assert.Equal(t, int64(400-8), m.Overwritten)
	assert.Equal(t, 8, rc.Len())
}

func TestNew_PanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[int](0) })
}
