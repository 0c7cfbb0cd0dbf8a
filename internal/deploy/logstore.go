package deploy

import (
	"sync"
	"time"

	"github.com/slipway/slipway/internal/api"
)

// LogStore retains a bounded window of log events per deploy and fans
// live events out to subscribers. Older events fall off the front once a
// deploy's buffer is full; subscribers that cannot keep up lose events
// rather than stalling the deploy.
type LogStore struct {
	mu       sync.Mutex
	capacity int
	streams  map[string]*logStream
}

type logStream struct {
	events []api.LogEvent // ring, len == capacity once full
	start  int            // index of the oldest retained event
	count  int
	closed bool
	subs   map[int]chan api.LogEvent
	nextID int
}

// NewLogStore returns a log store retaining up to capacity events per
// deploy.
func NewLogStore(capacity int) *LogStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &LogStore{
		capacity: capacity,
		streams:  make(map[string]*logStream),
	}
}

func (ls *LogStore) stream(deployID string) *logStream {
	st, ok := ls.streams[deployID]
	if !ok {
		st = &logStream{
			events: make([]api.LogEvent, 0, ls.capacity),
			subs:   make(map[int]chan api.LogEvent),
		}
		ls.streams[deployID] = st
	}
	return st
}

// Append records an event and delivers it to all live subscribers.
// A zero timestamp is stamped with the current time.
func (ls *LogStore) Append(deployID string, ev api.LogEvent) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	st := ls.stream(deployID)
	if st.closed {
		return
	}
	if st.count < ls.capacity {
		st.events = append(st.events, ev)
		st.count++
	} else {
		st.events[st.start] = ev
		st.start = (st.start + 1) % ls.capacity
	}

	for _, ch := range st.subs {
		select {
		case ch <- ev:
		default: // slow subscriber, drop
		}
	}
}

// Events returns a snapshot of the retained events for a deploy, oldest
// first.
func (ls *LogStore) Events(deployID string) []api.LogEvent {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	st, ok := ls.streams[deployID]
	if !ok {
		return nil
	}
	return st.snapshot()
}

func (st *logStream) snapshot() []api.LogEvent {
	events := make([]api.LogEvent, 0, st.count)
	for i := 0; i < st.count; i++ {
		events = append(events, st.events[(st.start+i)%len(st.events)])
	}
	return events
}

// Subscribe returns the retained backlog plus a channel of live events.
// The channel closes when the deploy finishes or cancel is called;
// cancel is safe to call more than once.
func (ls *LogStore) Subscribe(deployID string) ([]api.LogEvent, <-chan api.LogEvent, func()) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	st := ls.stream(deployID)
	backlog := st.snapshot()

	ch := make(chan api.LogEvent, ls.capacity)
	if st.closed {
		close(ch)
		return backlog, ch, func() {}
	}

	id := st.nextID
	st.nextID++
	st.subs[id] = ch

	cancel := func() {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		if sub, ok := st.subs[id]; ok {
			delete(st.subs, id)
			close(sub)
		}
	}
	return backlog, ch, cancel
}

// Close marks a deploy's stream finished and releases its subscribers.
// Events retained so far stay readable; further appends are dropped.
func (ls *LogStore) Close(deployID string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	st, ok := ls.streams[deployID]
	if !ok {
		st = ls.stream(deployID)
	}
	if st.closed {
		return
	}
	st.closed = true
	for id, ch := range st.subs {
		delete(st.subs, id)
		close(ch)
	}
}

// Closed reports whether a deploy's stream has finished.
func (ls *LogStore) Closed(deployID string) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	st, ok := ls.streams[deployID]
	return ok && st.closed
}
