package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"financitos/internal/remote"
)

// Store is an in-process stand-in for the remote file store.
type Store struct {
	mu      sync.Mutex
	files   map[string][]byte
	ids     map[string]string
	seq     int
	uploads int
	failErr error
}

var _ remote.BackupUploader = (*Store)(nil)

func New() *Store {
	return &Store{
		files: make(map[string][]byte),
		ids:   make(map[string]string),
	}
}

// FailWith makes every following upload fail with err; nil restores success.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// UploadBackup stores content under name, keeping the id of an existing file.
func (s *Store) UploadBackup(_ context.Context, name string, content []byte) (remote.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil {
		return remote.UploadResult{Success: false, Error: s.failErr.Error()},
			fmt.Errorf("%w: %w", remote.ErrSyncFailed, s.failErr)
	}
	if name == "" {
		err := errors.New("empty file name")
		return remote.UploadResult{Success: false, Error: err.Error()},
			fmt.Errorf("%w: %w", remote.ErrSyncFailed, err)
	}

	id, ok := s.ids[name]
	if !ok {
		s.seq++
		id = fmt.Sprintf("mem:%d", s.seq)
		s.ids[name] = id
	}
	s.files[name] = slices.Clone(content)
	s.uploads++
	return remote.UploadResult{Success: true, FileID: id}, nil
}

// File returns the stored content for name.
func (s *Store) File(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[name]
	return slices.Clone(b), ok
}

// Names lists the stored file names in order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.files))
	for n := range s.files {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Uploads counts successful uploads, including in-place updates.
func (s *Store) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}
