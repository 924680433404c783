// Package spectate serves a read-only view of the game over SSH. Anyone
// who connects sees the board redrawn after every move.
package spectate

import "sync"

// Feed fans the latest frame out to every viewer. A slow viewer only ever
// misses intermediate frames, never the newest one.
type Feed struct {
	mu      sync.Mutex
	frame   string
	viewers map[chan string]struct{}
	closed  bool
}

func NewFeed() *Feed {
	return &Feed{viewers: make(map[chan string]struct{})}
}

// Publish replaces the current frame.
func (f *Feed) Publish(frame string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.frame = frame
	for ch := range f.viewers {
		select {
		case <-ch:
		default:
		}
		ch <- frame
	}
}

// Frame returns the current frame.
func (f *Feed) Frame() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

// Subscribe returns a channel primed with the current frame and a function
// that unsubscribes. The channel is closed when the feed closes.
func (f *Feed) Subscribe() (<-chan string, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan string, 1)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	if f.frame != "" {
		ch <- f.frame
	}
	f.viewers[ch] = struct{}{}
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.viewers[ch]; ok {
			delete(f.viewers, ch)
			close(ch)
		}
	}
}

func (f *Feed) Viewers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.viewers)
}

// Close disconnects every viewer.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for ch := range f.viewers {
		delete(f.viewers, ch)
		close(ch)
	}
}
