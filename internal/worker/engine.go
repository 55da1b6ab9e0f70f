package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/salesorder/internal/config"
	"github.com/Additional-Code/salesorder/internal/messaging"
)

const maxBackoff = 30 * time.Second

// HandlerRegistration binds a topic, and optionally a single event type on
// that topic, to a handler. An empty EventType matches every event.
type HandlerRegistration struct {
	Topic     string
	EventType string
	Handler   messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine orchestrates background message consumption.
type Engine struct {
	client  messaging.Client
	logger  *zap.Logger
	cfg     config.Config
	routes  map[string]map[string]messaging.Handler
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	backoff time.Duration
}

// NewEngine constructs the worker Engine.
func NewEngine(p Params) *Engine {
	routes := make(map[string]map[string]messaging.Handler)
	for _, r := range p.Registrations {
		if r.Topic == "" || r.Handler == nil {
			continue
		}
		if routes[r.Topic] == nil {
			routes[r.Topic] = make(map[string]messaging.Handler)
		}
		routes[r.Topic][r.EventType] = r.Handler
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:  p.Client,
		logger:  logger,
		cfg:     p.Config,
		routes:  routes,
		backoff: time.Second,
	}
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

func (e *Engine) start(context.Context) error {
	if !e.cfg.Messaging.Enabled || !e.cfg.Messaging.Workers.Enabled {
		e.logger.Info("worker engine disabled")
		return nil
	}
	if len(e.routes) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")
		return nil
	}

	concurrency := e.cfg.Messaging.Workers.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	for i := 0; i < concurrency; i++ {
		workerID := i
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeLoop(runCtx, workerID)
		}()
	}

	e.logger.Info("worker engine started",
		zap.Int("workers", concurrency),
		zap.String("topic", e.client.Topic()),
	)
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")
		return nil
	}
}

// dispatch routes msg by topic, then by its event-type header. Messages with
// no matching route are acknowledged and dropped.
func (e *Engine) dispatch(ctx context.Context, workerID int, msg messaging.Message) error {
	byType, ok := e.routes[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic))
		return nil
	}

	eventType := msg.Headers[messaging.HeaderEventType]
	handler, ok := byType[eventType]
	if !ok {
		handler, ok = byType[""]
	}
	if !ok {
		e.logger.Debug("no handler for event type",
			zap.String("topic", msg.Topic),
			zap.String("event_type", eventType),
		)
		return nil
	}

	e.logger.Debug("processing message",
		zap.String("topic", msg.Topic),
		zap.String("event_type", eventType),
		zap.Int64("offset", msg.Offset),
		zap.Int("worker", workerID),
	)
	return handler(ctx, msg)
}

// consumeLoop keeps a consumer attached until ctx is done, backing off
// exponentially between failed sessions.
func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	backoff := retry.WithCappedDuration(maxBackoff, retry.NewExponential(e.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			return e.dispatch(msgCtx, workerID, msg)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		e.logger.Error("consume loop error", zap.Int("worker", workerID), zap.Error(err))
		return retry.RetryableError(err)
	})
	if err != nil && ctx.Err() == nil {
		e.logger.Error("consumer gave up", zap.Int("worker", workerID), zap.Error(err))
	}
}
