// Package retention enforces the fixed retention window over both the
// message archive and the media vault. Deletion records are deliberately
// outside its reach.
package retention

import (
	"context"
	"sync"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"

	"retracer/internal/archive"
	"retracer/internal/vault"
)

// Sweeper periodically removes content older than the retention window.
// The first sweep waits out a warm-up so startup traffic (pairing, history
// catch-up) is not competing with a full directory walk.
type Sweeper struct {
	archive  *archive.Store
	vault    *vault.Vault
	window   time.Duration
	warmup   time.Duration
	interval time.Duration
	log      waLog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewSweeper creates a Sweeper.
func NewSweeper(arch *archive.Store, v *vault.Vault, window, warmup, interval time.Duration, log waLog.Logger) *Sweeper {
	return &Sweeper{
		archive:  arch,
		vault:    v,
		window:   window,
		warmup:   warmup,
		interval: interval,
		log:      log.Sub("Retention"),
		stopCh:   make(chan struct{}),
	}
}

// Start schedules sweeps: one after the warm-up, then one per interval,
// until ctx is canceled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		warmup := time.NewTimer(s.warmup)
		defer warmup.Stop()

		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-warmup.C:
		}
		s.RunOnce(time.Now())

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.RunOnce(time.Now())
			}
		}
	}()
}

// Stop halts the schedule.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// RunOnce performs a single sweep of both stores against the window
// anchored at now. Errors are logged, not returned: a failed sweep must
// never take the pipeline down, the next interval retries anyway.
func (s *Sweeper) RunOnce(now time.Time) {
	cutoff := now.Add(-s.window)
	s.log.Infof("Retention sweep starting (cutoff %s)", cutoff.Format(time.RFC3339))

	partitions, err := s.archive.SweepExpired(cutoff)
	if err != nil {
		s.log.Errorf("Archive sweep failed: %v", err)
	}

	files, entries, err := s.vault.Sweep(cutoff)
	if err != nil {
		s.log.Errorf("Vault sweep failed: %v", err)
	}

	s.log.Infof("Retention sweep done: %d partitions, %d media files, %d index entries removed",
		partitions, files, entries)
}
