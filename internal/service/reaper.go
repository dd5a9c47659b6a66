package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reaper periodically evicts expired bills and pending tokens. The poll and
// token-listing paths already sweep synchronously; the reaper closes the
// liveness gap where an idle print client would otherwise leave stale records
// unbounded.
type Reaper struct {
	printSvc *PrintService
	tokenSvc *TokenService
	interval time.Duration
	logger   *zap.Logger
}

// NewReaper creates a reaper. An interval of zero disables it.
func NewReaper(printSvc *PrintService, tokenSvc *TokenService, interval time.Duration, logger *zap.Logger) *Reaper {
	return &Reaper{
		printSvc: printSvc,
		tokenSvc: tokenSvc,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on every tick until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) error {
	if r.interval <= 0 {
		r.logger.Info("background reaper disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	r.logger.Info("background reaper started", zap.Duration("interval", r.interval))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := time.Now()
			r.printSvc.Sweep(now)
			r.tokenSvc.Sweep(now)
		}
	}
}
