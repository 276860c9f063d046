package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingEvent struct{}

func (pingEvent) Name() string { return "ping" }

func TestBus_PublishAndDrain(t *testing.T) {
	bus := New(zap.NewNop())
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("ping", func(ctx context.Context, e Event) error {
			calls.Add(1)
			return nil
		})
	}
	bus.Subscribe("ping", func(context.Context, Event) error { return errors.New("boom") })

	bus.Publish(context.Background(), pingEvent{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Drain(ctx))
	assert.Equal(t, int32(3), calls.Load())
}

func TestBus_DrainTimeout(t *testing.T) {
	bus := New(zap.NewNop())
	release := make(chan struct{})
	bus.Subscribe("ping", func(context.Context, Event) error {
		<-release
		return nil
	})
	bus.Publish(context.Background(), pingEvent{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Drain(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, bus.Drain(context.Background()))
}

func TestBus_NoListeners(t *testing.T) {
	bus := New(zap.NewNop())
	bus.Publish(context.Background(), pingEvent{})
	assert.NoError(t, bus.Drain(context.Background()))
}
