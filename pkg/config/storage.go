package config

import (
	"fmt"
	"strings"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// StorageConfig selects the store backing products and sales.
type StorageConfig struct {
	Driver string `koanf:"driver"`
}

func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	return b.String()
}

func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case StorageMemory, StoragePostgres:
		return nil
	case "":
		return fmt.Errorf("storage driver is not configured")
	default:
		return fmt.Errorf("unknown storage driver %q, expected %q or %q", c.Driver, StorageMemory, StoragePostgres)
	}
}
