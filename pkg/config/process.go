package config

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"
)

// LogConfig selects the minimum level of the JSON logger: debug, info, warn or error.
type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) String() string {
	return fmt.Sprintf("\n--- Log ---\n  level: %s\n", c.SlogLevel())
}

// SlogLevel returns the configured level, info when none is set.
func (c *LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if c.Level == "" || lvl.UnmarshalText([]byte(c.Level)) != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (c *LogConfig) Validate() error {
	if c.Level == "" {
		return nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("log level %q is not one of debug, info, warn, error", c.Level)
	}
	return nil
}

// PProfConfig exposes net/http/pprof on a separate listener, usually loopback only.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) String() string {
	if !c.Enabled {
		return "\n--- PProf ---\n  enabled: false\n"
	}
	return fmt.Sprintf("\n--- PProf ---\n  enabled: true\n  address: %s\n", c.Addr)
}

func (c *PProfConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("pprof is enabled but address %q is not host:port: %w", c.Addr, err)
	}
	return nil
}

// ShutdownConfig bounds how long servers, consumers and exporters get to drain on exit.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Shutdown ---\n")
	fmt.Fprintf(&b, "  timeout: %s\n", c.Timeout)
	return b.String()
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout must be greater than zero")
	}
	return nil
}
