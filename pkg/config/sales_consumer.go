package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gamevault/inventory/pkg/messaging"
)

// DefaultSalesConsumer is the durable consumer name used when none is configured.
const DefaultSalesConsumer = "sales-audit"

var salesSubjectPrefix = strings.TrimSuffix(messaging.SalesSubjects, ">")

// SalesConsumerConfig configures the durable JetStream consumer reading sale events.
// Stream, Subject and Consumer default to the inventory sales stream, every sale subject and DefaultSalesConsumer.
type SalesConsumerConfig struct {
	Stream   string        `koanf:"stream"`
	Subject  string        `koanf:"subject"`
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
}

func (c *SalesConsumerConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Sales consumer ---\n")
	fmt.Fprintf(&b, "  %s on %s (%s)\n", c.Consumer, c.Stream, c.Subject)
	fmt.Fprintf(&b, "  workers: %d, batch: %d, fetch wait: %s, retry after: %s\n", c.Workers, c.Batch, c.Timeout, c.Interval)
	return b.String()
}

// Validate fills the stream defaults and rejects subjects outside the sale events.
func (c *SalesConsumerConfig) Validate() error {
	if c.Stream == "" {
		c.Stream = messaging.SalesStream
	}
	if c.Subject == "" {
		c.Subject = messaging.SalesSubjects
	}
	if c.Consumer == "" {
		c.Consumer = DefaultSalesConsumer
	}
	if !strings.HasPrefix(c.Subject, salesSubjectPrefix) {
		return fmt.Errorf("subscriber subject %q is not a sale event subject (%s)", c.Subject, messaging.SalesSubjects)
	}
	switch {
	case c.Batch <= 0:
		return fmt.Errorf("subscriber batch must be greater than zero")
	case c.Timeout <= 0:
		return fmt.Errorf("subscriber timeout must be greater than zero")
	case c.Interval <= 0:
		return fmt.Errorf("subscriber interval must be greater than zero")
	case c.Workers <= 0:
		return fmt.Errorf("subscriber workers must be greater than zero")
	}
	return nil
}
