package helper

import (
	"sync"

	"github.com/AntonStoeckl/watchable-go/watchable"
)

// ListenerCall is one recorded notification.
type ListenerCall struct {
	NewValue any
	OldValue any
	Key      watchable.Key
}

// ListenerSpy records every notification delivered to its Listener.
type ListenerSpy struct {
	calls []ListenerCall
	mu    sync.Mutex
}

// NewListenerSpy creates a new ListenerSpy.
func NewListenerSpy() *ListenerSpy {
	return &ListenerSpy{calls: make([]ListenerCall, 0)}
}

// Listener returns the callback to register. All callbacks of one spy record into the same log.
func (s *ListenerSpy) Listener() watchable.Listener {
	return func(newValue, oldValue any, key watchable.Key) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.calls = append(s.calls, ListenerCall{NewValue: newValue, OldValue: oldValue, Key: key})
	}
}

// GetCallCount returns the number of recorded notifications.
func (s *ListenerSpy) GetCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.calls)
}

// GetCalls returns a copy of all recorded notifications.
func (s *ListenerSpy) GetCalls() []ListenerCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]ListenerCall, len(s.calls))
	copy(calls, s.calls)

	return calls
}

// GetLastCall returns the most recent notification, the zero ListenerCall when there is none.
func (s *ListenerSpy) GetLastCall() ListenerCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.calls) == 0 {
		return ListenerCall{}
	}

	return s.calls[len(s.calls)-1]
}

// Reset clears all recorded notifications, typically after the initial call of AddListener.
func (s *ListenerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = s.calls[:0]
}
