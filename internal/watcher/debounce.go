package watcher

import (
	"sync"
	"time"
)

// Debouncer delays a callback until activity on a path settles. Rapid
// events for the same path coalesce into one callback fired a full delay
// after the last event.
type Debouncer struct {
	delay    time.Duration
	callback func(path string)

	mu      sync.Mutex
	pending map[string]*pendingPath
	gen     uint64
}

type pendingPath struct {
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates a Debouncer invoking callback for each settled path.
func NewDebouncer(delay time.Duration, callback func(path string)) *Debouncer {
	return &Debouncer{
		delay:    delay,
		callback: callback,
		pending:  make(map[string]*pendingPath),
	}
}

// Add schedules path, restarting its timer when it is already pending.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[path]; ok {
		p.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending[path] = &pendingPath{
		gen:   gen,
		timer: time.AfterFunc(d.delay, func() { d.fire(path, gen) }),
	}
}

// fire runs the callback unless the timer was superseded or cancelled
// after it started firing.
func (d *Debouncer) fire(path string, gen uint64) {
	d.mu.Lock()
	p, ok := d.pending[path]
	if !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	d.mu.Unlock()

	if d.callback != nil {
		d.callback(path)
	}
}

// Cancel drops a pending path. Unknown paths are ignored.
func (d *Debouncer) Cancel(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[path]; ok {
		p.timer.Stop()
		delete(d.pending, path)
	}
}

// CancelAll drops every pending path.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for path, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, path)
	}
}

// Len returns the number of pending paths.
func (d *Debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// IsPending reports whether path is waiting to settle.
func (d *Debouncer) IsPending(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[path]
	return ok
}

// Delay returns the configured debounce delay.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}
