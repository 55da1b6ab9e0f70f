package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/salesorder/internal/config"
	"github.com/Additional-Code/salesorder/internal/messaging"
)

// feedClient delivers queued messages to Consume, then blocks until ctx is
// done. The first failures calls to Consume return an error.
type feedClient struct {
	mu       sync.Mutex
	queue    []messaging.Message
	failures int32
	calls    atomic.Int32
}

func (f *feedClient) Publish(context.Context, messaging.Message) error { return nil }

func (f *feedClient) Consume(ctx context.Context, handler messaging.Handler) error {
	if f.calls.Add(1) <= f.failures {
		return errors.New("broker unavailable")
	}
	for {
		f.mu.Lock()
		if len(f.queue) == 0 {
			f.mu.Unlock()
			break
		}
		msg := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *feedClient) Topic() string { return "salesorders.events" }

func enabledConfig(concurrency int) config.Config {
	cfg := config.Config{}
	cfg.Messaging.Enabled = true
	cfg.Messaging.Workers.Enabled = true
	cfg.Messaging.Workers.Concurrency = concurrency
	return cfg
}

func msg(topic, eventType string) messaging.Message {
	m := messaging.Message{Topic: topic, Value: []byte(`{}`)}
	if eventType != "" {
		m.Headers = map[string]string{messaging.HeaderEventType: eventType}
	}
	return m
}

func TestDispatchRoutesByTopicAndEventType(t *testing.T) {
	var created, catchAll atomic.Int32
	engine := NewEngine(Params{
		Client: &feedClient{},
		Logger: zap.NewNop(),
		Registrations: []HandlerRegistration{
			{Topic: "orders", EventType: "salesorder.created", Handler: func(context.Context, messaging.Message) error { created.Add(1); return nil }},
			{Topic: "audit", Handler: func(context.Context, messaging.Message) error { catchAll.Add(1); return nil }},
			{Topic: "", Handler: func(context.Context, messaging.Message) error { t.Fatal("empty topic registered"); return nil }},
			{Topic: "ignored"},
		},
	})
	ctx := context.Background()

	require.NoError(t, engine.dispatch(ctx, 0, msg("orders", "salesorder.created")))
	require.NoError(t, engine.dispatch(ctx, 0, msg("orders", "salesorder.cancelled")))
	require.NoError(t, engine.dispatch(ctx, 0, msg("audit", "anything")))
	require.NoError(t, engine.dispatch(ctx, 0, msg("audit", "")))
	require.NoError(t, engine.dispatch(ctx, 0, msg("unknown", "salesorder.created")))
	require.NoError(t, engine.dispatch(ctx, 0, msg("ignored", "")))

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(2), catchAll.Load())
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	engine := NewEngine(Params{
		Client:        &feedClient{},
		Registrations: []HandlerRegistration{{Topic: "orders", Handler: func(context.Context, messaging.Message) error { return boom }}},
	})

	assert.ErrorIs(t, engine.dispatch(context.Background(), 0, msg("orders", "")), boom)
}

func TestEngineConsumesUntilStopped(t *testing.T) {
	client := &feedClient{queue: []messaging.Message{
		msg("orders", "salesorder.created"),
		msg("orders", "salesorder.created"),
		msg("orders", "salesorder.created"),
	}}
	var handled atomic.Int32
	engine := NewEngine(Params{
		Client: client,
		Logger: zap.NewNop(),
		Config: enabledConfig(2),
		Registrations: []HandlerRegistration{{Topic: "orders", EventType: "salesorder.created", Handler: func(context.Context, messaging.Message) error {
			handled.Add(1)
			return nil
		}}},
	})

	require.NoError(t, engine.start(context.Background()))
	assert.Eventually(t, func() bool { return handled.Load() == 3 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, engine.stop(ctx))
	assert.Empty(t, client.queue)
}

func TestEngineRetriesAfterConsumeError(t *testing.T) {
	client := &feedClient{failures: 2}
	engine := NewEngine(Params{
		Client:        client,
		Logger:        zap.NewNop(),
		Config:        enabledConfig(1),
		Registrations: []HandlerRegistration{{Topic: "orders", Handler: func(context.Context, messaging.Message) error { return nil }}},
	})
	engine.backoff = time.Millisecond

	require.NoError(t, engine.start(context.Background()))
	assert.Eventually(t, func() bool { return client.calls.Load() == 3 }, time.Second, time.Millisecond)
	require.NoError(t, engine.stop(context.Background()))
}

func TestEngineDisabled(t *testing.T) {
	client := &feedClient{}
	cfg := enabledConfig(1)
	cfg.Messaging.Workers.Enabled = false
	engine := NewEngine(Params{
		Client:        client,
		Config:        cfg,
		Registrations: []HandlerRegistration{{Topic: "orders", Handler: func(context.Context, messaging.Message) error { return nil }}},
	})

	require.NoError(t, engine.start(context.Background()))
	require.NoError(t, engine.stop(context.Background()))
	assert.Zero(t, client.calls.Load())
}

func TestEngineWithoutHandlers(t *testing.T) {
	client := &feedClient{}
	engine := NewEngine(Params{Client: client, Config: enabledConfig(1)})

	require.NoError(t, engine.start(context.Background()))
	require.NoError(t, engine.stop(context.Background()))
	assert.Zero(t, client.calls.Load())
}
