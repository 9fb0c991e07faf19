package audit

import (
	"strings"

	"github.com/gamevault/inventory/pkg/config"
	"github.com/gamevault/inventory/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Config is the configuration of the sales audit consumer.
type Config struct {
	Log        config.LogConfig           `koanf:"log"`
	PProf      config.PProfConfig         `koanf:"pprof"`
	Nats       config.NATSConfig          `koanf:"nats"`
	Subscriber config.SalesConsumerConfig `koanf:"subscriber"`
	Probes     config.ProbesConfig        `koanf:"probes"`
	Shutdown   config.ShutdownConfig      `koanf:"shutdown"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.Nats.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Probes.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid. The consumer always needs NATS.
func (c *Config) Validate() error {
	c.Nats.Enabled = true
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Nats.Validate(); err != nil {
		return err
	}
	if err := c.Subscriber.Validate(); err != nil {
		return err
	}
	if err := c.Probes.Validate(); err != nil {
		return err
	}
	return c.Shutdown.Validate()
}
