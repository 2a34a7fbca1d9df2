package machine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/imamik/anchorage/internal/util/retry"
)

// ErrNoPrivateAddress is returned when a machine record carries no private IP.
var ErrNoPrivateAddress = errors.New("machine record has no private address")

// Record is the subset of a docker-machine config.json anchorage reads.
type Record struct {
	Name       string       `json:"Name"`
	DriverName string       `json:"DriverName"`
	Driver     DriverRecord `json:"Driver"`
}

// DriverRecord holds the driver section of a machine record.
type DriverRecord struct {
	MachineName      string `json:"MachineName"`
	IPAddress        string `json:"IPAddress"`
	PrivateIPAddress string `json:"PrivateIPAddress"`
	SSHUser          string `json:"SSHUser"`
}

// DefaultStorePath returns docker-machine's storage directory, honouring
// MACHINE_STORAGE_PATH.
func DefaultStorePath() string {
	if p := os.Getenv("MACHINE_STORAGE_PATH"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".docker", "machine")
	}
	return filepath.Join(home, ".docker", "machine")
}

// Store reads machine records from a docker-machine storage directory.
type Store struct {
	Dir      string
	Attempts int
	Delay    time.Duration
	OnRetry  func(name string, attempt int, err error)
}

// NewStore returns a store rooted at dir. An empty dir means DefaultStorePath.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultStorePath()
	}
	return &Store{
		Dir:      dir,
		Attempts: 3,
		Delay:    200 * time.Millisecond,
	}
}

// RecordPath returns the config.json path for the named machine.
func (s *Store) RecordPath(name string) string {
	return filepath.Join(s.Dir, "machines", name, "config.json")
}

// Load reads the named machine's record. A record that does not exist yet is
// retried, since docker-machine writes it asynchronously; a record that
// cannot be decoded is not.
func (s *Store) Load(ctx context.Context, name string) (*Record, error) {
	path := s.RecordPath(name)

	var record Record
	err := retry.Do(ctx, func(context.Context) error {
		// #nosec G304 - path is derived from the machine storage directory
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return err
			}
			return retry.Fatal(err)
		}
		if err := json.Unmarshal(data, &record); err != nil {
			return retry.Fatal(fmt.Errorf("failed to decode %s: %w", path, err))
		}
		return nil
	},
		retry.WithAttempts(s.Attempts),
		retry.WithInitialDelay(s.Delay),
		retry.WithOnRetry(func(attempt int, err error) {
			if s.OnRetry != nil {
				s.OnRetry(name, attempt, err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine record for %s: %w", name, err)
	}
	return &record, nil
}

// PrivateAddress returns the private IP recorded for the named machine.
func (s *Store) PrivateAddress(ctx context.Context, name string) (string, error) {
	record, err := s.Load(ctx, name)
	if err != nil {
		return "", err
	}
	if record.Driver.PrivateIPAddress == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNoPrivateAddress)
	}
	return record.Driver.PrivateIPAddress, nil
}
