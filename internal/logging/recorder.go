package logging

import "sync"

// Entry is one record captured by a Recorder.
type Entry struct {
	Level string
	Msg   string
	Args  []any
}

// Recorder is a Logger that keeps entries in memory.  Tests use it to assert
// that degraded paths were logged.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) add(level, msg string, args []any) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Args: args})
	r.mu.Unlock()
}

func (r *Recorder) Debug(msg string, args ...any) { r.add("debug", msg, args) }
func (r *Recorder) Info(msg string, args ...any)  { r.add("info", msg, args) }
func (r *Recorder) Warn(msg string, args ...any)  { r.add("warn", msg, args) }
func (r *Recorder) Error(msg string, args ...any) { r.add("error", msg, args) }

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many entries were recorded at level.
func (r *Recorder) Count(level string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
