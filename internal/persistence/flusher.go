package persistence

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFlushInterval is how long a Flusher waits after the first change
// before writing.
const DefaultFlushInterval = 2 * time.Second

// Flusher writes one key in the background. Callers change their in-memory
// state and call Mark; the value returned by snapshot is written at most once
// per interval, off the caller's goroutine. Close writes anything still
// pending.
type Flusher struct {
	store    Store
	key      string
	snapshot func() any
	interval time.Duration
	log      *slog.Logger

	writeMu sync.Mutex // serializes writes so an older snapshot never lands last
	dirty   atomic.Bool

	wake      chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewFlusher starts a flusher for key. snapshot must return a value that is
// safe to encode without further locking.
func NewFlusher(store Store, key string, interval time.Duration, snapshot func() any, logger *slog.Logger) *Flusher {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	f := &Flusher{
		store:    store,
		key:      key,
		snapshot: snapshot,
		interval: interval,
		log:      logger.With("component", "flusher", "key", key),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go f.run()
	return f
}

// Mark records that the value changed. It never blocks.
func (f *Flusher) Mark() {
	f.dirty.Store(true)
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// Pending reports whether a change has not been written yet.
func (f *Flusher) Pending() bool {
	return f.dirty.Load()
}

// Flush writes the current value now if it changed since the last write.
func (f *Flusher) Flush(ctx context.Context) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	if !f.dirty.Swap(false) {
		return nil
	}
	if err := f.store.Set(ctx, f.key, f.snapshot()); err != nil {
		f.dirty.Store(true)
		return err
	}
	return nil
}

// Close stops the background loop and writes any pending change. It is safe
// to call more than once.
func (f *Flusher) Close(ctx context.Context) error {
	f.closeOnce.Do(func() { close(f.done) })
	<-f.stopped
	return f.Flush(ctx)
}

func (f *Flusher) run() {
	defer close(f.stopped)

	for {
		select {
		case <-f.done:
			return
		case <-f.wake:
		}

		timer := time.NewTimer(f.interval)
		select {
		case <-f.done:
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := f.Flush(context.Background()); err != nil {
			f.log.Warn("background write failed", slog.String("error", err.Error()))
			f.Mark() // retry after another interval
		}
	}
}
