// Package fingerprint owns the per-subject client fingerprint cache shared by all workers.
package fingerprint

import (
	"sync"
)

// Generator produces a new fingerprint string.
type Generator func() string

// Store is the process-wide fingerprint cache. All writes to the backing file happen under mu,
// so two workers provisioning new subjects at once cannot lose each other's entries.
type Store struct {
	mu       sync.Mutex
	entries  map[string]string
	filePath string
	generate Generator
}

// Open loads the cache file. A nil gen uses DesktopAgent.
func Open(filePath string, gen Generator) (*Store, error) {
	entries, err := LoadEntries(filePath)
	if err != nil {
		return nil, err
	}
	if gen == nil {
		gen = DesktopAgent
	}
	return &Store{entries: entries, filePath: filePath, generate: gen}, nil
}

// Get returns the cached fingerprint for subject.
func (s *Store) Get(subject string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[subject]
	return v, ok
}

// Ensure returns the fingerprint for subject, generating and persisting one if none exists.
// The entry stays in memory even if persisting fails; the error is returned for logging.
func (s *Store) Ensure(subject string) (fp string, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.entries[subject]; ok {
		return v, false, nil
	}
	fp = s.generate()
	s.entries[subject] = fp
	return fp, true, SaveEntries(s.filePath, s.entries)
}

// Len returns the number of cached subjects.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
