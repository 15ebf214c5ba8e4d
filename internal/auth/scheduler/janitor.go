package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ireporter-backend/internal/auth/repository"
)

// DenylistJanitor periodically deletes revoked-token rows whose tokens have
// expired on their own.
type DenylistJanitor struct {
	store    repository.Store
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewDenylistJanitor creates a new janitor
func NewDenylistJanitor(store repository.Store, interval time.Duration, logger *slog.Logger) *DenylistJanitor {
	return &DenylistJanitor{
		store:    store,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the purge loop
func (j *DenylistJanitor) Start() {
	j.logger.Info("denylist janitor started", "interval", j.interval.String())

	go func() {
		defer close(j.done)

		// Run immediately on start
		j.purge()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				j.purge()
			case <-j.stopChan:
				j.logger.Info("denylist janitor stopped")
				return
			}
		}
	}()
}

// Stop halts the loop started by Start and waits for an in-flight purge to
// finish. Safe to call more than once.
func (j *DenylistJanitor) Stop() {
	j.stopOnce.Do(func() { close(j.stopChan) })
	<-j.done
}

func (j *DenylistJanitor) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	var purged int64
	err := j.store.Session(ctx, func(repos repository.Repositories) error {
		var err error
		purged, err = repos.RevokedTokens.PurgeExpired(j.now())
		return err
	})
	if err != nil {
		j.logger.Error("denylist purge failed", "error", err)
		return
	}

	if purged > 0 {
		j.logger.Info("denylist purged", "rows", purged)
	}
}
