package config

import (
	"fmt"
	"strings"
)

// SalesConfig tunes the sale coordinator.
type SalesConfig struct {
	// Transactional runs the decrement and the sale insert in one database transaction.
	// It only applies to the postgres driver; otherwise a failed insert is compensated.
	Transactional bool `koanf:"transactional"`
}

func (c *SalesConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Sales ---\n")
	b.WriteString(fmt.Sprintf("  transactional: %t\n", c.Transactional))
	return b.String()
}

func (c *SalesConfig) Validate() error {
	return nil
}
