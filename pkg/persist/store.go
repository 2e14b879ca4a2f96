package persist

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrEmptyName is returned for an empty state name.
var ErrEmptyName = errors.New("empty state name")

const dirPerm = 0o750

// Store keeps values of type T in dir. Names are escaped into file names,
// so any string is a valid name.
type Store[T any] struct {
	dir   string
	codec Codec
}

// NewStore returns a store rooted at dir.
func NewStore[T any](dir string, codec Codec) *Store[T] {
	return &Store[T]{dir: dir, codec: codec}
}

func (s *Store[T]) path(name string) string {
	return filepath.Join(s.dir, url.PathEscape(name)+s.codec.Extension())
}

// Save writes state under name. The file is replaced atomically.
func (s *Store[T]) Save(name string, state *T) (err error) {
	if name == "" {
		return ErrEmptyName
	}

	err = os.MkdirAll(s.dir, dirPerm)
	if err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(tmp.Name()))
		}
	}()

	err = s.codec.Encode(tmp, state)
	if err != nil {
		return errors.Join(fmt.Errorf("encode %s: %w", name, err), tmp.Close())
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("close state file: %w", err)
	}

	err = os.Rename(tmp.Name(), s.path(name))
	if err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}

	return nil
}

// Load reads the state stored under name.
func (s *Store[T]) Load(name string) (*T, error) {
	file, err := os.Open(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	var state T

	err = s.codec.Decode(file, &state)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	return &state, nil
}

// Names lists the stored names in sorted order. A missing directory holds
// nothing.
func (s *Store[T]) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read state dir: %w", err)
	}

	ext := s.codec.Extension()

	var names []string

	for _, entry := range entries {
		base, ok := strings.CutSuffix(entry.Name(), ext)
		if !ok || entry.IsDir() {
			continue
		}

		name, err := url.PathUnescape(base)
		if err != nil {
			continue
		}

		names = append(names, name)
	}

	slices.Sort(names)

	return names, nil
}

// Remove deletes the state stored under name. Removing a missing name is
// not an error.
func (s *Store[T]) Remove(name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}

	return nil
}
