package features

import (
	"sync"

	"realtime-srv/internal/envelope"
)

// Storage keeps the latest storage quota snapshot.
type Storage struct {
	mu      sync.RWMutex
	current envelope.Storage
	updates int
}

func (s *Storage) HandleEnvelope(env envelope.Envelope) {
	d, ok := env.Data().(envelope.Storage)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = d
	s.updates++
}

// Snapshot returns the latest snapshot. ok is false until one arrives.
func (s *Storage) Snapshot() (snap envelope.Storage, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.updates > 0
}

// Updates is the number of snapshots applied so far.
func (s *Storage) Updates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updates
}
