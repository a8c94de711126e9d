package groutine

import (
	"context"
	"runtime/pprof"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_NamesGoroutine(t *testing.T) {
	type result struct {
		name  string
		label string
	}
	done := make(chan result, 1)

	//nolint:staticcheck // nil parent is part of the contract
	Go(nil, "ble-scan", func(ctx context.Context) {
		label, _ := pprof.Label(ctx, "goroutine_name")
		done <- result{name: Name(ctx), label: label}
	})

	select {
	case r := <-done:
		assert.Equal(t, "ble-scan", r.name)
		assert.Equal(t, "ble-scan", r.label)
	case <-time.After(time.Second):
		require.Fail(t, "goroutine did not run")
	}
}

func TestGo_PropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	Go(ctx, "watcher", func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "goroutine did not observe cancellation")
	}
}

func TestName_Empty(t *testing.T) {
	assert.Equal(t, "", Name(context.Background()))
	//nolint:staticcheck // nil context is handled
	assert.Equal(t, "", Name(nil))
}
