package notify

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"wikinotify/internal/domain/entity"
	"wikinotify/internal/handler/http/requestid"
	"wikinotify/internal/infra/notifier"
)

// DispatcherConfig sizes the asynchronous delivery pool.
type DispatcherConfig struct {
	// Workers is the number of concurrent senders.
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`

	// QueueSize is the number of notifications that may wait for a worker.
	QueueSize int `yaml:"queue_size" envconfig:"QUEUE_SIZE" validate:"gte=1,lte=100000"`

	// SendTimeout bounds a single delivery, including rate limiter waits.
	SendTimeout time.Duration `yaml:"send_timeout" envconfig:"SEND_TIMEOUT" validate:"gt=0"`
}

// DefaultDispatcherConfig returns the production defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:     2,
		QueueSize:   256,
		SendTimeout: 30 * time.Second,
	}
}

// Dispatcher is a Transport that queues payloads and delivers them from a
// fixed pool of background workers. Send never blocks: when the queue is
// full the payload is dropped with ErrQueueFull. No ordering is guaranteed
// with more than one worker.
type Dispatcher struct {
	next    notifier.Transport
	config  DispatcherConfig
	queue   chan dispatchJob
	logger  *slog.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex // guards closed and sends on queue
	closed  bool
	stopCtx context.Context    // canceled when Shutdown gives up waiting
	stop    context.CancelFunc // aborts in-flight deliveries
}

type dispatchJob struct {
	ctx      context.Context
	payload  entity.Payload
	enqueued time.Time
}

var _ notifier.Transport = (*Dispatcher)(nil)

// NewDispatcher starts cfg.Workers goroutines delivering through next.
// Zero values in cfg fall back to DefaultDispatcherConfig.
func NewDispatcher(next notifier.Transport, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	def := DefaultDispatcherConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = def.SendTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	stopCtx, stop := context.WithCancel(context.Background())
	d := &Dispatcher{
		next:    next,
		config:  cfg,
		queue:   make(chan dispatchJob, cfg.QueueSize),
		logger:  logger,
		stopCtx: stopCtx,
		stop:    stop,
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Name implements Transport.
func (d *Dispatcher) Name() string {
	return "async"
}

// Async reports that Send only enqueues. The router then leaves delivery
// metrics to the workers.
func (d *Dispatcher) Async() bool {
	return true
}

// Send implements Transport by enqueueing p. It returns ErrQueueFull or
// ErrDispatcherClosed without blocking; delivery errors are only logged.
// The context's values (request id, span) are kept, its cancellation is not.
func (d *Dispatcher) Send(ctx context.Context, p entity.Payload) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		RecordDropped("shutdown")
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- dispatchJob{ctx: context.WithoutCancel(ctx), payload: p, enqueued: time.Now()}:
		SetQueueDepth(len(d.queue))
		return nil
	default:
		RecordDropped("queue_full")
		return ErrQueueFull
	}
}

// QueueDepth returns the number of notifications waiting for a worker.
func (d *Dispatcher) QueueDepth() int {
	return len(d.queue)
}

// Capacity returns the queue capacity.
func (d *Dispatcher) Capacity() int {
	return cap(d.queue)
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.queue {
		SetQueueDepth(len(d.queue))
		if d.stopCtx.Err() != nil {
			RecordDropped("shutdown")
			continue
		}
		d.deliver(job)
	}
}

// deliver sends one job. Panics in the transport are recovered so that a
// single bad notification cannot take the worker down.
func (d *Dispatcher) deliver(job dispatchJob) {
	IncrementActiveWorkers()
	defer DecrementActiveWorkers()

	reqID := requestid.FromContext(job.ctx)
	transport := d.next.Name()

	defer func() {
		if r := recover(); r != nil {
			RecordDropped("panic")
			d.logger.Error("Panic in notification worker",
				slog.String("request_id", reqID),
				slog.String("transport", transport),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	ctx, cancel := context.WithTimeout(job.ctx, d.config.SendTimeout)
	defer cancel()
	stopAbort := context.AfterFunc(d.stopCtx, cancel)
	defer stopAbort()

	start := time.Now()
	err := d.next.Send(ctx, job.payload)
	duration := time.Since(start)

	if err != nil {
		RecordFailure(transport, duration)
		if errors.Is(err, notifier.ErrCircuitOpen) {
			RecordDropped("circuit_open")
		}
		d.logger.Warn("Notification delivery failed",
			slog.String("request_id", reqID),
			slog.String("transport", transport),
			slog.Duration("queued", start.Sub(job.enqueued)),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return
	}

	RecordSuccess(transport, duration)
	d.logger.Info("Notification delivered",
		slog.String("request_id", reqID),
		slog.String("transport", transport),
		slog.Duration("queued", start.Sub(job.enqueued)),
		slog.Duration("send_duration", duration))
}

// Shutdown stops accepting notifications and waits for the queue to drain.
// When ctx ends first, in-flight deliveries are canceled, queued ones are
// abandoned and ctx.Err() is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.logger.Info("Shutting down notification dispatcher", slog.Int("queued", len(d.queue)))

	// Wait for in-flight notifications with timeout
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.stop()
		d.logger.Info("Notification dispatcher shutdown complete")
		return nil
	case <-ctx.Done():
		d.stop()
		d.logger.Warn("Notification dispatcher shutdown timeout", slog.Int("abandoned", len(d.queue)))
		return ctx.Err()
	}
}
