package push

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/journal-desktop/journal-backend/internal/store"
	"github.com/journal-desktop/journal-backend/pkg/types"
)

// Dispatcher errors.
var (
	ErrDispatcherStopped = errors.New("push: dispatcher is stopped")
	ErrQueueFull         = errors.New("push: delivery queue is full")
)

// delivery is one queued send.
type delivery struct {
	target  types.Subscription
	payload []byte
}

// DispatcherConfig sizes the delivery worker pool.
type DispatcherConfig struct {
	NumWorkers      int
	QueueSize       int
	SendTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultDispatcherConfig returns conservative defaults. Push delivery is
// network-bound, so a few workers cover a single-user journal comfortably.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		NumWorkers:      4,
		QueueSize:       256,
		SendTimeout:     10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// DispatcherStats is a point-in-time snapshot of delivery counters.
type DispatcherStats struct {
	Queued    int64 `json:"queued"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Expired   int64 `json:"expired"`
}

// Dispatcher runs a fixed pool of delivery workers over a bounded queue.
// Endpoints that report themselves gone are deactivated in the store.
type Dispatcher struct {
	logger *zap.Logger
	config DispatcherConfig
	sender Sender
	subs   store.SubscriptionStore

	queue  chan delivery
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	running atomic.Bool

	queued    atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
	expired   atomic.Int64
}

// NewDispatcher creates a stopped dispatcher.
func NewDispatcher(logger *zap.Logger, sender Sender, subs store.SubscriptionStore, config DispatcherConfig) *Dispatcher {
	if config.NumWorkers <= 0 {
		config = DefaultDispatcherConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		logger: logger,
		config: config,
		sender: sender,
		subs:   subs,
		queue:  make(chan delivery, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the delivery workers.
func (d *Dispatcher) Start() {
	if d.running.Swap(true) {
		return
	}
	d.logger.Info("starting push dispatcher",
		zap.Int("workers", d.config.NumWorkers),
		zap.Int("queue_size", d.config.QueueSize),
	)
	for i := 0; i < d.config.NumWorkers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	logger := d.logger.With(zap.Int("worker_id", id))
	for {
		select {
		case <-d.ctx.Done():
			return
		case job, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(logger, job)
		}
	}
}

func (d *Dispatcher) deliver(logger *zap.Logger, job delivery) {
	ctx, cancel := context.WithTimeout(d.ctx, d.config.SendTimeout)
	defer cancel()

	err := d.sender.Send(ctx, job.target, job.payload)
	switch {
	case err == nil:
		d.delivered.Add(1)
	case errors.Is(err, ErrSubscriptionGone):
		d.expired.Add(1)
		logger.Info("deactivating gone push endpoint",
			zap.String("username", job.target.Username),
		)
		if derr := d.subs.DeactivateSubscription(ctx, job.target.Endpoint); derr != nil {
			logger.Warn("deactivate failed", zap.Error(derr))
		}
	default:
		d.failed.Add(1)
		logger.Warn("push delivery failed",
			zap.String("username", job.target.Username),
			zap.Error(err),
		)
	}
}

// Enqueue adds a delivery without blocking. A full queue returns ErrQueueFull.
func (d *Dispatcher) Enqueue(job delivery) error {
	if !d.running.Load() {
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- job:
		d.queued.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains workers, waiting up to the shutdown timeout.
func (d *Dispatcher) Stop() error {
	if !d.running.Swap(false) {
		return nil
	}
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.logger.Info("push dispatcher stopped")
		return nil
	case <-time.After(d.config.ShutdownTimeout):
		d.logger.Warn("push dispatcher shutdown timed out")
		return errors.New("push: shutdown timed out")
	}
}

// Stats returns the delivery counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Queued:    d.queued.Load(),
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Expired:   d.expired.Load(),
	}
}
