package config

import (
	"errors"
	"fmt"
	"regexp"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9-]{3,128}$`)

// ErrInvalidIdentifier is returned for cluster and machine names outside
// [a-zA-Z0-9-]{3,128}.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrNoManagers is returned for a cluster without swarm managers.
var ErrNoManagers = errors.New("a cluster requires at least one swarm manager")

// ValidateIdentifier checks a cluster or machine name.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w %q: names are 3 to 128 characters of [a-zA-Z0-9-]", ErrInvalidIdentifier, name)
	}
	return nil
}

// ValidateClusterSize checks the requested node counts of a new cluster.
func ValidateClusterSize(managers, workers, ceph int) error {
	if managers < 1 {
		return ErrNoManagers
	}
	if workers < 0 || ceph < 0 {
		return fmt.Errorf("node counts must not be negative (workers=%d, ceph=%d)", workers, ceph)
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Machine.Driver == "" {
		errs = append(errs, errors.New("machine.driver is required"))
	}
	if c.Machine.RootSize < 0 {
		errs = append(errs, fmt.Errorf("machine.rootSize must not be negative, got %d", c.Machine.RootSize))
	}
	if c.Executor.Workers < 0 {
		errs = append(errs, fmt.Errorf("executor.workers must not be negative, got %d", c.Executor.Workers))
	}
	if c.Executor.KillGrace < 0 {
		errs = append(errs, fmt.Errorf("executor.killGrace must not be negative, got %s", c.Executor.KillGrace))
	}
	if c.Executor.DockerMachine == "" {
		errs = append(errs, errors.New("executor.dockerMachine is required"))
	}
	if c.Executor.Docker == "" {
		errs = append(errs, errors.New("executor.docker is required"))
	}
	if c.Executor.RecordRetries < 1 {
		errs = append(errs, fmt.Errorf("executor.recordRetries must be at least 1, got %d", c.Executor.RecordRetries))
	}

	return errors.Join(errs...)
}
