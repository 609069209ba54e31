package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/squadracorsepolito/ringq/alloc"
	"github.com/squadracorsepolito/ringq/internal"
	"github.com/stretchr/testify/assert"
)

func newTestLogger() *internal.Logger {
	return internal.NewLoggerWithWriter("cmd", "test", &bytes.Buffer{}, true)
}

func Test_run(t *testing.T) {
	assert := assert.New(t)
	t.Cleanup(alloc.Unregister)

	cfg := NewDefaultConfig()
	cfg.Capacity = 16
	cfg.WindowSize = 8
	cfg.Producers = 2
	cfg.Items = 1000

	assert.NoError(run(context.Background(), cfg, newTestLogger()))
}

func Test_run_Canceled(t *testing.T) {
	assert := assert.New(t)
	t.Cleanup(alloc.Unregister)

	cfg := NewDefaultConfig()
	cfg.Capacity = 4
	cfg.Producers = 8
	cfg.Items = 10_000_000

	for range 10 {
		ctx, cancel := context.WithCancel(context.Background())
		timer := time.AfterFunc(5*time.Millisecond, cancel)

		assert.NotPanics(func() {
			assert.NoError(run(ctx, cfg, newTestLogger()))
		})

		timer.Stop()
		cancel()
	}
}
