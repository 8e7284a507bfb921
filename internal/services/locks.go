package services

import "sync"

// ProfileLocks serializes writers per profile. Handlers share one instance so
// concurrent requests against the same profile cannot interleave
// read-modify-write cycles; different profiles proceed independently.
type ProfileLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewProfileLocks() *ProfileLocks {
	return &ProfileLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the profile's mutex, creating it on first use. The returned
// func releases it.
func (p *ProfileLocks) Lock(profileID string) func() {
	p.mu.Lock()
	m, ok := p.locks[profileID]
	if !ok {
		m = &sync.Mutex{}
		p.locks[profileID] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
