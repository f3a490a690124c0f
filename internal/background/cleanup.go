package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Reaper drops idle state and reports how many entries it removed
type Reaper interface {
	ReapExpired() int
}

// CleanupManager periodically reaps idle rate-limit windows
type CleanupManager struct {
	reaper   Reaper
	logger   *slog.Logger
	interval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(reaper Reaper, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		reaper:   reaper,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the reaper every interval. It blocks until ctx is cancelled or Stop is called.
func (cm *CleanupManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.runCleanup()
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return nil
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return nil
		}
	}
}

func (cm *CleanupManager) runCleanup() {
	if removed := cm.reaper.ReapExpired(); removed > 0 {
		cm.logger.Debug("reaped idle rate limit windows", slog.Int("keys_removed", removed))
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
