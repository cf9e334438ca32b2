package background

import (
	"context"
	"log/slog"
	"time"
)

// ResetCodeSweeper removes reset codes that can no longer be redeemed
type ResetCodeSweeper interface {
	ClearExpiredResetOTPs(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupManager periodically clears expired password reset codes so they
// do not linger on user records after their window closes.
type CleanupManager struct {
	sweeper  ResetCodeSweeper
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(sweeper ResetCodeSweeper, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cleared, err := cm.sweeper.ClearExpiredResetOTPs(cleanupCtx, cm.now())
	if err != nil {
		cm.logger.Error("failed to clear expired reset codes", slog.Any("error", err))
		return
	}

	if cleared > 0 {
		cm.logger.Info("expired reset codes cleared", slog.Int64("rows_cleared", cleared))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
