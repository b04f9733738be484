package host

import "sync"

// fanout delivers events to all subscribed listeners. Delivery for one
// event completes before the next event from the same channel is emitted,
// preserving per-channel FIFO.
type fanout struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
}

func newFanout() *fanout {
	return &fanout{listeners: make(map[int]Listener)}
}

func (f *fanout) subscribe(l Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.listeners[id] = l

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fanout) emit(ev Event) {
	f.mu.Lock()
	ls := make([]Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		ls = append(ls, l)
	}
	f.mu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}
