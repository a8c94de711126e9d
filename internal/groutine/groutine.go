// Package groutine starts named goroutines so they show up labelled in
// pprof goroutine dumps and can log their own name.
package groutine

import (
	"context"
	"runtime/pprof"
)

type ctxKey struct{}

// Go runs fn in a new goroutine labelled with name. A nil parentCtx is
// treated as context.Background().
//
//	groutine.Go(ctx, "ble-scan", func(ctx context.Context) {
//	    _ = dev.Scan(ctx, false, handler)
//	})
func Go(parentCtx context.Context, name string, fn func(ctx context.Context)) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	labels := pprof.Labels("goroutine_name", name)
	go pprof.Do(parentCtx, labels, func(ctx context.Context) {
		fn(context.WithValue(ctx, ctxKey{}, name))
	})
}

// Name returns the goroutine name stored in ctx by Go, or "".
func Name(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxKey{}).(string); ok {
		return s
	}
	return ""
}
