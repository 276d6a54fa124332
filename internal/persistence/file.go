package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const storeFileName = "store.gob"

// FileStore keeps every key in one gob file inside a data directory. The
// whole file is rewritten on each change.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string][]byte
	closed bool
}

// OpenFileStore opens the store in dir, loading existing contents if the
// file is present.
func OpenFileStore(dir string) (*FileStore, error) {
	s := &FileStore{
		path:   filepath.Join(dir, storeFileName),
		values: make(map[string][]byte),
	}
	if err := LoadGob(s.path, &s.values); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
	}
	if s.values == nil {
		s.values = make(map[string][]byte)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context, key string, dst any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	data, ok := s.values[key]
	if !ok {
		return false, nil
	}
	return true, decodeValue(key, data, dst)
}

func (s *FileStore) Set(_ context.Context, key string, value any) error {
	data, err := encodeValue(key, value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	previous, had := s.values[key]
	s.values[key] = data
	if err := SaveGob(s.path, s.values); err != nil {
		if had {
			s.values[key] = previous
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	previous, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := SaveGob(s.path, s.values); err != nil {
		s.values[key] = previous
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
