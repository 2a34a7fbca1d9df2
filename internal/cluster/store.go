// Package cluster keeps a record of the clusters anchorage created, so later
// commands can list, extend and remove them.
//
// Records live at <dir>/<name>/cluster.yaml, by default under
// ~/.anchorage/clusters.
package cluster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	sigsyaml "sigs.k8s.io/yaml"
)

var (
	// ErrNotFound is returned when no record exists for a cluster.
	ErrNotFound = errors.New("cluster not found")

	// ErrExists is returned when creating a cluster whose record exists.
	ErrExists = errors.New("cluster already exists")
)

const recordFile = "cluster.yaml"

// Cluster is the persisted record of a cluster's machines.
type Cluster struct {
	Name      string    `json:"name"`
	Managers  []string  `json:"managers,omitempty"`
	Workers   []string  `json:"workers,omitempty"`
	Ceph      []string  `json:"ceph,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Machines returns every machine name, managers first.
func (c *Cluster) Machines() []string {
	all := make([]string, 0, len(c.Managers)+len(c.Workers)+len(c.Ceph))
	all = append(all, c.Managers...)
	all = append(all, c.Workers...)
	return append(all, c.Ceph...)
}

// DefaultDir returns ~/.anchorage/clusters.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".anchorage", "clusters")
	}
	return filepath.Join(home, ".anchorage", "clusters")
}

// Store reads and writes cluster records.
type Store struct {
	Dir string
}

// NewStore returns a store rooted at dir. An empty dir means DefaultDir.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{Dir: dir}
}

// Path returns the record path of the named cluster.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name, recordFile)
}

// Exists reports whether a record exists for name.
func (s *Store) Exists(name string) (bool, error) {
	_, err := os.Stat(s.Path(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat cluster %s: %w", name, err)
	}
}

// Load reads the named cluster's record.
func (s *Store) Load(name string) (*Cluster, error) {
	// #nosec G304 - path is built from the store directory and a validated name
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read cluster %s: %w", name, err)
	}

	var c Cluster
	if err := sigsyaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cluster %s: %w", name, err)
	}
	return &c, nil
}

// Save writes c's record, replacing any previous one.
func (s *Store) Save(c *Cluster) error {
	data, err := sigsyaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cluster %s: %w", c.Name, err)
	}
	path := s.Path(c.Name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create cluster directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cluster %s: %w", c.Name, err)
	}
	return nil
}

// Delete removes the named cluster's record directory.
func (s *Store) Delete(name string) error {
	exists, err := s.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := os.RemoveAll(filepath.Join(s.Dir, name)); err != nil {
		return fmt.Errorf("failed to delete cluster %s: %w", name, err)
	}
	return nil
}

// List returns the names of all recorded clusters, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.Dir, e.Name(), recordFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
