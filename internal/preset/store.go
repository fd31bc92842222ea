package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Store enumerates and loads preset files from a single directory.
// The preset universe is fixed for the lifetime of a Store.
type Store struct {
	dir string
}

// NewStore creates a Store for the given preset directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the preset directory the store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// List returns the names of all preset files in the directory, sorted.
// Subdirectories and dotfiles are ignored.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read preset directory %s: %w", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == "" || name[0] == '.' {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Select resolves the preset names for a run. With an empty subset every
// preset in the directory is in scope; otherwise each requested name must
// exist.
func (s *Store) Select(subset []string) ([]string, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(subset) == 0 {
		return all, nil
	}

	known := make(map[string]bool, len(all))
	for _, n := range all {
		known[n] = true
	}
	selected := make([]string, 0, len(subset))
	for _, n := range subset {
		if !known[n] {
			return nil, fmt.Errorf("preset %q not found in %s", n, s.dir)
		}
		selected = append(selected, n)
	}
	sort.Strings(selected)
	return selected, nil
}

// Load reads and parses one preset by name.
func (s *Store) Load(name string) (*Preset, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("open preset %s: %w", name, err)
	}
	defer f.Close()
	return Parse(name, f)
}
