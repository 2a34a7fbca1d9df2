package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/anchorage/internal/config"
)

// MachineCreateOptions are the arguments of `machine create`.
type MachineCreateOptions struct {
	Names       []string
	Quiet       bool
	Credentials CredentialFlags
}

// CreateMachines handles the machine create command. Every machine is
// created concurrently; one failing does not stop the others.
func CreateMachines(ctx context.Context, g *Globals, opts MachineCreateOptions) error {
	seen := make(map[string]bool, len(opts.Names))
	for _, name := range opts.Names {
		if err := config.ValidateIdentifier(name); err != nil {
			return err
		}
		if seen[name] {
			return fmt.Errorf("machine %s given more than once", name)
		}
		seen[name] = true
	}

	s, err := newSession(g, opts.Quiet)
	if err != nil {
		return err
	}
	if err := s.applyCredentials(ctx, opts.Credentials); err != nil {
		return err
	}

	if _, err := s.builder(nil, "").CreateMachines(opts.Names...); err != nil {
		return err
	}
	return s.execute(ctx, "Machines created successfully!")
}
