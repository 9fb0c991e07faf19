package config

import (
	"fmt"
	"strings"
	"time"
)

// Defaults of an inventory API client, matching a local inventory service.
const (
	DefaultInventoryClientName = "inventory-seed"
	DefaultInventoryAddr       = "localhost:9090"
	DefaultInventoryTimeout    = 3 * time.Second
)

// InventoryClientConfig configures a gRPC client of the inventory service and the resilience
// interceptors wrapped around it. Zero values are replaced with the defaults by Validate.
type InventoryClientConfig struct {
	Name           string               `koanf:"name"`
	Addr           string               `koanf:"addr"`
	Timeout        time.Duration        `koanf:"timeout"`
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

// RetryConfig retries calls failing with a transient status.
type RetryConfig struct {
	MaxAttempts    uint          `koanf:"maxattempts"`
	InitialBackoff time.Duration `koanf:"initialbackoff"`
}

// CircuitBreakerConfig trips after ConsecutiveFailures failures in a row,
// or once more than ErrorRatePercent of the calls failed.
type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	ErrorRatePercent    int           `koanf:"errorratepercent"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

// BreakerName names the circuit breaker of this client.
func (c *InventoryClientConfig) BreakerName() string {
	return c.Name + "-cb"
}

func (c *InventoryClientConfig) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n--- Inventory client (%s) ---\n", c.Name)
	fmt.Fprintf(&b, "  addr: %s, timeout: %s\n", c.Addr, c.Timeout)
	fmt.Fprintf(&b, "  retry: %d attempts from %s\n", c.Retry.MaxAttempts, c.Retry.InitialBackoff)
	fmt.Fprintf(&b, "  breaker: %d consecutive failures or %d%% errors, open for %s\n",
		c.CircuitBreaker.ConsecutiveFailures, c.CircuitBreaker.ErrorRatePercent, c.CircuitBreaker.OpenTimeout)
	return b.String()
}

func (c *InventoryClientConfig) applyDefaults() {
	if c.Name == "" {
		c.Name = DefaultInventoryClientName
	}
	if c.Addr == "" {
		c.Addr = DefaultInventoryAddr
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultInventoryTimeout
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialBackoff == 0 {
		c.Retry.InitialBackoff = 200 * time.Millisecond
	}
	if c.CircuitBreaker.ConsecutiveFailures == 0 {
		c.CircuitBreaker.ConsecutiveFailures = 5
	}
	if c.CircuitBreaker.ErrorRatePercent == 0 {
		c.CircuitBreaker.ErrorRatePercent = 60
	}
	if c.CircuitBreaker.OpenTimeout == 0 {
		c.CircuitBreaker.OpenTimeout = 5 * time.Second
	}
}

// Validate fills the defaults, then rejects negative durations and out-of-range percentages.
func (c *InventoryClientConfig) Validate() error {
	c.applyDefaults()
	switch {
	case c.Timeout < 0:
		return fmt.Errorf("inventory.timeout must be greater than zero")
	case c.Retry.InitialBackoff < 0:
		return fmt.Errorf("inventory.retry.initialbackoff must be greater than zero")
	case c.CircuitBreaker.ErrorRatePercent < 0 || c.CircuitBreaker.ErrorRatePercent > 100:
		return fmt.Errorf("inventory.circuitbreaker.errorratepercent must be between 0 and 100")
	case c.CircuitBreaker.OpenTimeout < 0:
		return fmt.Errorf("inventory.circuitbreaker.opentimeout must be greater than zero")
	}
	return nil
}
