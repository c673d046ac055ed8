package app

import (
	"context"
	"log/slog"
	"time"
)

const defaultPurgeInterval = time.Hour

// expiredKeyPurger deletes request keys that are past their expiry.
type expiredKeyPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// purgeScheduler runs PurgeExpired on a fixed interval until Stop.
type purgeScheduler struct {
	purger   expiredKeyPurger
	interval time.Duration
	log      *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func startPurgeScheduler(purger expiredKeyPurger, interval time.Duration, log *slog.Logger) *purgeScheduler {
	if interval <= 0 {
		interval = defaultPurgeInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &purgeScheduler{
		purger:   purger,
		interval: interval,
		log:      log,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *purgeScheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run once at startup so keys left by a previous process go first
	s.purge(ctx)
	for {
		select {
		case <-ticker.C:
			s.purge(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *purgeScheduler) purge(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("dedup purge failed", "error", err)
		}
		return
	}
	if n > 0 {
		s.log.Info("purged expired request keys", "count", n)
	}
}

// Stop cancels the loop and waits for an in-flight purge to return.
func (s *purgeScheduler) Stop() {
	s.cancel()
	<-s.done
}
