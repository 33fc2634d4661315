package eventlogger

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// saveTimeout bounds each write so a stuck database cannot stall the queue.
const saveTimeout = 5 * time.Second

// Worker persists events in the background from a buffered queue.
type Worker struct {
	eventCh chan Event
	logger  EventLogger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.RWMutex
	started bool
	stopped bool
}

func NewWorker(logger EventLogger, bufferSize int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		eventCh: make(chan Event, bufferSize),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true

	w.wg.Go(func() {
		for {
			select {
			case <-w.ctx.Done():
				w.drain()
				return
			case event := <-w.eventCh:
				w.save(w.ctx, event)
			}
		}
	})
}

func (w *Worker) drain() {
	slog.Info("draining events before shutdown", "remaining_events", len(w.eventCh))
	for {
		select {
		case event := <-w.eventCh:
			w.save(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) save(ctx context.Context, event Event) {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	if err := w.logger.Save(ctx, event); err != nil {
		slog.Error("failed to save event", "error", err, "event_type", event.Type)
	}
}

// Log queues an event without blocking. Events are dropped when the queue is
// full or the worker has shut down.
func (w *Worker) Log(event Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		slog.Warn("event worker stopped, dropping event", "event_type", event.Type)
		return
	}

	select {
	case w.eventCh <- event:
	default:
		slog.Warn("event channel full, dropping event", "event_type", event.Type)
	}
}

// Shutdown stops accepting events and waits until queued ones are saved.
// Events queued on a worker that was never started are saved here.
func (w *Worker) Shutdown() {
	w.mu.Lock()
	started := w.started
	w.stopped = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	if !started {
		w.drain()
	}
}
