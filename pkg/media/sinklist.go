package media

import (
	"sync"

	"github.com/lmshao/remote-desk/pkg/frame"
)

// SinkList is the reusable fan-out implementation shared by every Source.
// Structural changes (Add/Remove/Clear) take the write lock; Deliver takes
// the read lock so many concurrent deliveries can proceed in parallel.
type SinkList struct {
	mu    sync.RWMutex
	sinks []Sink
}

// Add appends s unless a sink with the same ID is already present.
func (l *SinkList) Add(s Sink) {
	if s == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.sinks {
		if existing.ID() == s.ID() {
			return
		}
	}
	l.sinks = append(l.sinks, s)
}

// Remove drops the sink matching s's ID, if present.
func (l *SinkList) Remove(s Sink) {
	if s == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.sinks {
		if existing.ID() == s.ID() {
			l.sinks = append(l.sinks[:i:i], l.sinks[i+1:]...)
			return
		}
	}
}

// Clear drops every sink.
func (l *SinkList) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = nil
}

// Count returns the number of registered sinks.
func (l *SinkList) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sinks)
}

// Has reports whether any sink is registered.
func (l *SinkList) Has() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sinks) > 0
}

// Deliver invokes every sink's OnFrame in insertion order, passing the same
// shared frame reference to each. Invalid frames are dropped silently —
// probing a source with a zero-value frame is not a caller error.
// Sink errors are not caught: a panicking sink is a programming bug, not a
// delivery-time condition this layer recovers from.
func (l *SinkList) Deliver(f *frame.Frame) {
	if !f.IsValid() {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, s := range l.sinks {
		s.OnFrame(f)
	}
}
