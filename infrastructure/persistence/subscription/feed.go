package subscription

import (
	"context"
	"sync"

	"diary-backend/application/ports"
)

// Feed is a latest-wins snapshot channel. A slow reader only ever sees the
// newest snapshot; older undelivered ones are dropped.
type Feed struct {
	mu       sync.Mutex
	ch       chan ports.Snapshot
	done     chan struct{}
	closed   bool
	once     sync.Once
	onCancel func()
}

// NewFeed creates an open feed. onCancel runs once after the feed closes.
func NewFeed(onCancel func()) *Feed {
	return &Feed{
		ch:       make(chan ports.Snapshot, 1),
		done:     make(chan struct{}),
		onCancel: onCancel,
	}
}

// CancelOnDone closes the feed when ctx ends.
func (f *Feed) CancelOnDone(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			f.Cancel()
		case <-f.done:
		}
	}()
}

// Send replaces any undelivered snapshot with s. It reports false once the feed is closed.
func (f *Feed) Send(s ports.Snapshot) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}
	select {
	case f.ch <- s:
		return true
	default:
	}
	select {
	case <-f.ch:
	default:
	}
	f.ch <- s
	return true
}

func (f *Feed) Updates() <-chan ports.Snapshot {
	return f.ch
}

// Done is closed when the feed is canceled.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

func (f *Feed) Cancel() {
	f.once.Do(func() {
		f.mu.Lock()
		f.closed = true
		close(f.ch)
		close(f.done)
		f.mu.Unlock()

		if f.onCancel != nil {
			f.onCancel()
		}
	})
}
