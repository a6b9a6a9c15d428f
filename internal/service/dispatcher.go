package service

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

const deliveryTimeout = 10 * time.Second

// Dispatcher hands notifications to a pool of workers so the request that
// triggered them never waits on, or learns about, the write.
type Dispatcher struct {
	notifier *Notifier
	queue    chan []NotificationSpec
	workers  int
	wg       conc.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(n *Notifier, workers, buffer int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}

	zap.L().Debug("Initializing notification dispatcher", zap.Int("workers", workers), zap.Int("buffer", buffer))

	return &Dispatcher{
		notifier: n,
		queue:    make(chan []NotificationSpec, buffer),
		workers:  workers,
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Go(d.worker)
	}
}

func (d *Dispatcher) worker() {
	for batch := range d.queue {
		var pc panics.Catcher

		pc.Try(func() {
			ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			defer cancel()

			if len(batch) == 1 {
				d.notifier.NotifyOne(ctx, batch[0])
				return
			}
			d.notifier.NotifyMany(ctx, batch)
		})

		if r := pc.Recovered(); r != nil {
			zap.L().Error("Notification worker recovered from panic", zap.String("panic", r.String()))
		}
	}
}

// Dispatch queues specs as one batch and returns immediately. It reports
// false when the batch was dropped because the queue is full or closed.
func (d *Dispatcher) Dispatch(specs ...NotificationSpec) bool {
	if len(specs) == 0 {
		return true
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		zap.L().Warn("Notification dispatcher closed, dropping batch", zap.Int("count", len(specs)))
		return false
	}

	select {
	case d.queue <- specs:
		return true
	default:
		zap.L().Warn("Notification queue full, dropping batch", zap.Int("count", len(specs)))
		return false
	}
}

// Close stops accepting batches and waits for queued ones to be written
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}
