// Package health wires periodic liveness probes using the teacher's own
// lightningnetwork/lnd/healthcheck.Monitor, exactly as lnd.go wires disk
// space and chain-backend checks at startup. The coordinator's checks
// are Postgres reachability and log-directory disk space.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/healthcheck"
)

const (
	checkInterval = time.Minute
	checkTimeout  = 5 * time.Second
	checkBackoff  = 10 * time.Second
	checkRetries  = 2
)

// Pinger is satisfied by internal/storage.DB; kept narrow so health
// doesn't import internal/storage directly.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DiskChecker reports the fraction (0 to 1) of disk space free at a path.
type DiskChecker func(path string) (float64, error)

// New builds a Monitor checking Postgres reachability and log-directory
// free space, shutting the process down via shutdown if either check
// exhausts its retries, matching lnd.go's own `healthCheckShutdownFn`.
func New(db Pinger, logDir string, freeDiskSpace DiskChecker, minFreeSpaceRatio float64, shutdown func(format string, args ...interface{})) *healthcheck.Monitor {
	dbCheck := healthcheck.NewObservation(
		"postgres",
		func() error { return db.Ping(context.Background()) },
		checkInterval, checkTimeout, checkBackoff, checkRetries,
	)

	diskCheck := healthcheck.NewObservation(
		"disk space",
		func() error {
			free, err := freeDiskSpace(logDir)
			if err != nil {
				return fmt.Errorf("health: checking disk space: %w", err)
			}
			if free < minFreeSpaceRatio {
				return fmt.Errorf("health: log directory has %.2f%% free space, need at least %.2f%%",
					free*100, minFreeSpaceRatio*100)
			}
			return nil
		},
		checkInterval, checkTimeout, checkBackoff, checkRetries,
	)

	return healthcheck.NewMonitor(&healthcheck.Config{
		Checks:   []*healthcheck.Observation{dbCheck, diskCheck},
		Shutdown: shutdown,
	})
}
