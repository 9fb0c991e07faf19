package seed

import (
	"github.com/gamevault/inventory/pkg/config"
	"github.com/gamevault/inventory/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Config is the configuration of the seed tool.
type Config struct {
	Inventory config.InventoryClientConfig `koanf:"inventory"`
	Log       config.LogConfig             `koanf:"log"`
}

func (c *Config) String() string {
	return c.Inventory.String() + c.Log.String()
}

func (c *Config) Validate() error {
	if err := c.Inventory.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
