package handlers

import (
	"errors"
	"fmt"
	"os"

	"github.com/imamik/anchorage/internal/config"
)

// InitConfig handles the config init command. It writes the default
// configuration to g.ConfigPath, refusing to replace an existing file
// unless force is set.
func InitConfig(g *Globals, force bool) error {
	path := g.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		if !force {
			return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", path)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	out := g.stdout()
	if g.DryRun {
		fmt.Fprintf(out, "Would write configuration to %s\n", path)
		return nil
	}

	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote configuration to %s\n", path)
	return nil
}
