package alerts

import (
	"securegluco/gluco/defs"
	"sync"

	"go.uber.org/zap"
)

// Store is the single alert list of the dashboard, newest first. Alerts are
// never removed; active and dismissed views are derived on read.
type Store struct {
	Logger *zap.Logger

	mu     sync.RWMutex
	alerts []defs.Alert
}

func NewStore(logger *zap.Logger) *Store {
	return &Store{Logger: logger, alerts: make([]defs.Alert, 0)}
}

// All returns a copy of every alert.
func (s *Store) All() []defs.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(defs.Alert) bool { return true }, 0)
}

// Set publishes a fully computed alert list.
func (s *Store) Set(alerts []defs.Alert) {
	next := make([]defs.Alert, len(alerts))
	copy(next, alerts)
	SortByTime(next)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = next
}

// Update computes the next list from the current one and publishes it in a
// single step.
func (s *Store) Update(fn func([]defs.Alert) []defs.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := make([]defs.Alert, len(s.alerts))
	copy(cur, s.alerts)

	next := fn(cur)
	SortByTime(next)
	s.alerts = next
}

// Dismiss marks the alert with id as dismissed and reports whether anything
// changed. Unknown ids, already dismissed alerts and the pinned
// current-glucose alert are left alone.
func (s *Store) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		al := &s.alerts[i]
		if al.ID != id {
			continue
		}
		if al.Dismissed || al.Type == defs.CurrentGlucoseAlert {
			return false
		}
		al.Dismissed = true
		s.Logger.Debug("dismissed alert", zap.String("id", id), zap.String("title", al.Title))
		return true
	}

	s.Logger.Debug("dismiss for unknown alert", zap.String("id", id))
	return false
}

func (s *Store) Active() []defs.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(al defs.Alert) bool { return !al.Dismissed }, 0)
}

func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, al := range s.alerts {
		if !al.Dismissed {
			n++
		}
	}
	return n
}

// RecentDismissed returns at most limit dismissed alerts, newest first.
func (s *Store) RecentDismissed(limit int) []defs.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(al defs.Alert) bool { return al.Dismissed }, limit)
}

func (s *Store) filter(keep func(defs.Alert) bool, limit int) []defs.Alert {
	out := make([]defs.Alert, 0)
	for _, al := range s.alerts {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep(al) {
			out = append(out, al)
		}
	}
	return out
}
