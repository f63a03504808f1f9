package hook

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/signbridge/internal/gesture"
)

// DefaultQueueSize bounds the number of letter events waiting for hooks.
const DefaultQueueSize = 64

// ErrQueueFull is returned by Publish when hooks fall behind.
var ErrQueueFull = errors.New("hook queue full")

// Runner feeds letter events to every discovered hook from a single worker
// goroutine, in emission order. It satisfies the emitter interface.
type Runner struct {
	manager  *Manager
	executor *Executor
	logger   *zap.Logger

	queue  chan gesture.LetterEvent
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewRunner starts a worker that runs the hooks of manager with timeout.
func NewRunner(manager *Manager, timeout time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		manager:  manager,
		executor: NewExecutor(timeout),
		logger:   logger,
		queue:    make(chan gesture.LetterEvent, DefaultQueueSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go r.loop()
	return r
}

// Publish queues event without waiting for the hooks.
func (r *Runner) Publish(event gesture.LetterEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	select {
	case r.queue <- event:
		return nil
	default:
		r.logger.Warn("dropping letter event", zap.String("letter", event.Letter))
		return ErrQueueFull
	}
}

// Close runs the queued events and stops the worker.
func (r *Runner) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
	r.cancel()
	return nil
}

func (r *Runner) loop() {
	defer close(r.done)
	for event := range r.queue {
		r.run(event)
	}
}

func (r *Runner) run(event gesture.LetterEvent) {
	for _, h := range r.manager.List() {
		if !h.Accepts(event.Letter) {
			continue
		}
		resp, err := r.executor.Execute(r.ctx, h, &Request{
			Event:      "letter",
			SessionID:  event.SessionID,
			Letter:     event.Letter,
			Confidence: event.Confidence,
			Text:       event.Text,
		})
		if err != nil {
			r.logger.Warn("hook failed", zap.String("hook", h.Manifest.Name), zap.Error(err))
			continue
		}
		if !resp.Success {
			r.logger.Warn("hook reported failure",
				zap.String("hook", h.Manifest.Name),
				zap.String("error", resp.Error))
			continue
		}
		r.logger.Debug("hook ran", zap.String("hook", h.Manifest.Name), zap.String("letter", event.Letter))
	}
}
