package explorer

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before typed search text is committed.
const DefaultDebounce = 300 * time.Millisecond

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks.  Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Debouncer buffers values and hands only the last one to commit after a
// quiet period with no further Push calls.
type Debouncer struct {
	clock  Clock
	delay  time.Duration
	commit func(string)

	mu      sync.Mutex
	timer   Timer
	pending string
	gen     uint64
}

// NewDebouncer returns a debouncer calling commit on the clock's goroutine.
func NewDebouncer(clock Clock, delay time.Duration, commit func(string)) *Debouncer {
	if clock == nil {
		clock = SystemClock
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{clock: clock, delay: delay, commit: commit}
}

// Push buffers v and restarts the quiet period.
func (d *Debouncer) Push(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = v
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// a timer that lost the race with Push must not commit an old value
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.timer = nil
	d.mu.Unlock()
	d.commit(v)
}

// Flush commits the buffered value now, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	v := d.pending
	d.mu.Unlock()
	d.commit(v)
}

// Stop drops the buffered value without committing it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
