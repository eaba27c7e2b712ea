package dataset

import (
	"sync"
)

// Store holds the current dataset snapshot and the path it came from.
// Handlers read the snapshot through Current; Reload re-reads the file and
// swaps the pointer so in-flight requests keep the snapshot they started
// with. A failed reload leaves the previous snapshot in place.
type Store struct {
	path string

	mu sync.RWMutex
	ds *Dataset
}

// NewStore loads the file once and returns a store for it.
// A load failure here is fatal to the caller: there is no dataset to serve.
func NewStore(path string) (*Store, error) {
	ds, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, ds: ds}, nil
}

// Path returns the file the store reads from.
func (s *Store) Path() string {
	return s.path
}

// Current returns the active snapshot.
func (s *Store) Current() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

// Reload re-reads the file and swaps in the new snapshot on success.
// On failure the previous snapshot stays active and the error is returned.
func (s *Store) Reload() (*Dataset, error) {
	ds, err := Load(s.path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.ds = ds
	s.mu.Unlock()
	return ds, nil
}
