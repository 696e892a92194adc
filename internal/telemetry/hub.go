package telemetry

import (
	"sync"
	"time"
)

const defaultHistoryLimit = 100

// Hub records run history and fans out events to subscribers.
type Hub struct {
	mu           sync.RWMutex
	history      []Event
	historyLimit int
	subscribers  map[chan Event]struct{}
}

// NewHub builds a hub keeping up to historyLimit events.
func NewHub(historyLimit int) *Hub {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &Hub{
		historyLimit: historyLimit,
		subscribers:  make(map[chan Event]struct{}),
	}
}

// Report implements Reporter and records a new event.
func (h *Hub) Report(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	h.mu.Lock()
	h.history = append(h.history, e)
	if len(h.history) > h.historyLimit {
		h.history = h.history[len(h.history)-h.historyLimit:]
	}
	for ch := range h.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
	h.mu.Unlock()
}

// History returns a copy of the recorded events.
func (h *Hub) History() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Event, len(h.history))
	copy(out, h.history)
	return out
}

// Last returns the most recent event, if any.
func (h *Hub) Last() (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.history) == 0 {
		return Event{}, false
	}
	return h.history[len(h.history)-1], true
}

// Subscribe registers a listener for live updates. Slow listeners miss
// events rather than stall the run.
func (h *Hub) Subscribe() (chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		delete(h.subscribers, ch)
		close(ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// MultiReporter fans out events to multiple destinations.
type MultiReporter []Reporter

// Report forwards the event to each configured reporter.
func (m MultiReporter) Report(e Event) {
	for _, r := range m {
		if r != nil {
			r.Report(e)
		}
	}
}
