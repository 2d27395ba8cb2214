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
	type seen struct {
		name  string
		label string
	}
	done := make(chan seen, 1)

	Go(context.Background(), "ble-link-monitor", func(ctx context.Context) {
		label, _ := pprof.Label(ctx, "goroutine_name")
		done <- seen{name: GetName(ctx), label: label}
	})

	select {
	case got := <-done:
		assert.Equal(t, "ble-link-monitor", got.name)
		assert.Equal(t, "ble-link-monitor", got.label)
	case <-time.After(time.Second):
		require.FailNow(t, "goroutine did not run")
	}
}

func TestGo_NilParentContext(t *testing.T) {
	done := make(chan struct{})
	//nolint:staticcheck // nil parent is part of the contract
	Go(nil, "nil-parent", func(ctx context.Context) {
		assert.NoError(t, ctx.Err())
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "goroutine did not run")
	}
}

func TestGetName_Unnamed(t *testing.T) {
	assert.Empty(t, GetName(context.Background()))
	//nolint:staticcheck // nil context is handled
	assert.Empty(t, GetName(nil))
}
