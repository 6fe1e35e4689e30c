// Package keepalive periodically issues no-ops on idle pooled sessions so
// the server's idle timeout never disconnects them behind the pool's back.
package keepalive

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ftpfs/internal/pool"
)

// SessionPool is the slice of the pool the runner needs.
type SessionPool interface {
	KeepAlive(ctx context.Context) error
	Idle() int
}

type Runner struct {
	pool     SessionPool
	interval time.Duration
	logger   *slog.Logger
}

func New(p SessionPool, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		pool:     p,
		interval: interval,
		logger:   logger,
	}
}

// Run loops until ctx is done. A pool that closed underneath us ends the
// loop; individual keep-alive failures are logged and already handled by
// the pool (failed sessions are discarded).
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("keep-alive started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("keep-alive stopped")
			return
		case <-ticker.C:
			if err := r.pool.KeepAlive(ctx); err != nil {
				if errors.Is(err, pool.ErrPoolClosed) {
					r.logger.Info("keep-alive stopped, pool closed")
					return
				}
				r.logger.Warn("keep-alive round had failures", "error", err)
			} else {
				r.logger.Debug("keep-alive round done", "idle", r.pool.Idle())
			}
		}
	}
}
