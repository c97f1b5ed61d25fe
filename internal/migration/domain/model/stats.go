package model

import "time"

// Stats accumulates run statistics for the migration service. It is owned
// and mutated by the single polling loop only; no locking is needed.
type Stats struct {
	Updated   map[string]int64
	Errors    int64
	LastCheck time.Time
}

// NewStats returns zeroed statistics.
func NewStats() *Stats {
	return &Stats{
		Updated: make(map[string]int64),
	}
}

// AddUpdated records n successfully updated documents for a target.
func (s *Stats) AddUpdated(target string, n int64) {
	s.Updated[target] += n
}

// RecordError increments the global error counter.
func (s *Stats) RecordError() {
	s.Errors++
}

// MarkCheck records the completion time of a cycle.
func (s *Stats) MarkCheck(t time.Time) {
	s.LastCheck = t
}

// Snapshot returns a copy safe to read after the loop has moved on.
func (s *Stats) Snapshot() Stats {
	updated := make(map[string]int64, len(s.Updated))
	for target, n := range s.Updated {
		updated[target] = n
	}
	return Stats{
		Updated:   updated,
		Errors:    s.Errors,
		LastCheck: s.LastCheck,
	}
}
