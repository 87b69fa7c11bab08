package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the configuration is usable for the given mode.
// Modes map to command families: "fetch" talks to the Affinity API and the
// checkpoint store, "local" covers the file-to-file commands.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "fetch":
		if c.Affinity.Key == "" {
			problems = append(problems, "affinity.key is required (TREVILLE_AFFINITY_KEY)")
		}
		switch c.Store.Driver {
		case "sqlite":
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required for the postgres driver")
			}
		default:
			problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
		}
		if c.Fetch.CheckpointEvery < 1 {
			problems = append(problems, "fetch.checkpoint_every must be >= 1")
		}
	case "local":
		// Nothing beyond logging, which InitLogger already checks.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}
