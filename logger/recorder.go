package logger

import (
	"fmt"
	"sync"
)

// Entry is one message captured by a Recorder.
type Entry struct {
	Level   string
	Message string
}

// Recorder is a Logger which keeps every message in memory. It is meant for tests which
// need to assert on what was logged.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) record(level, msg string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: fmt.Sprintf(msg, args...)})
}

func (r *Recorder) Debugf(msg string, args ...interface{}) {
	r.record("debug", msg, args...)
}

func (r *Recorder) Infof(msg string, args ...interface{}) {
	r.record("info", msg, args...)
}

func (r *Recorder) Warnf(msg string, args ...interface{}) {
	r.record("warn", msg, args...)
}

func (r *Recorder) Errorf(msg string, args ...interface{}) {
	r.record("error", msg, args...)
}

// Entries returns a copy of everything logged so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns the number of entries logged at the given level, or at any level if level is empty.
func (r *Recorder) Count(level string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if level == "" {
		return len(r.entries)
	}
	n := 0
	for _, e := range r.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
