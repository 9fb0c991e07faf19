package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// MarkReady creates the readiness file.
func MarkReady(path string) error {
	if err := os.WriteFile(path, []byte("ready"), 0o644); err != nil {
		return fmt.Errorf("failed to write readiness file: %w", err)
	}
	return nil
}

// KeepAlive rewrites the liveness file every interval until ctx is done, then removes it.
func KeepAlive(ctx context.Context, path string, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove liveness file", "error", err)
		}
	}()
	touch := func() {
		if err := os.WriteFile(path, []byte(time.Now().UTC().Format(time.RFC3339)), 0o644); err != nil {
			logger.Warn("failed to write liveness file", "error", err)
		}
	}
	touch()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			touch()
		}
	}
}
