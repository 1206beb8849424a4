// Package scheduler runs the periodic memory maintenance passes: a
// forgetting pass on a multi-hour period and a consolidation pass roughly
// daily. Both jobs are fire-and-forget: a failed or panicking run is logged
// and the next tick still happens.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mstolt/recall/internal/store"
)

// DefaultRetentionInterval is how often the forgetting pass runs.
const DefaultRetentionInterval = 6 * time.Hour

// DefaultConsolidationInterval is how often the consolidation pass runs.
const DefaultConsolidationInterval = 24 * time.Hour

// Scheduler drives the two maintenance jobs against one store.
type Scheduler struct {
	store *store.Store
	log   *slog.Logger

	retentionEvery   time.Duration
	consolidateEvery time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler. Non-positive intervals take the defaults.
func New(st *store.Store, retentionEvery, consolidateEvery time.Duration, logger *slog.Logger) *Scheduler {
	if retentionEvery <= 0 {
		retentionEvery = DefaultRetentionInterval
	}
	if consolidateEvery <= 0 {
		consolidateEvery = DefaultConsolidationInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:            st,
		log:              logger,
		retentionEvery:   retentionEvery,
		consolidateEvery: consolidateEvery,
	}
}

// Start launches both jobs. They run until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.loop(ctx, "forgetting", s.retentionEvery, func(ctx context.Context) {
		removed := s.store.EnforceRetention(ctx)
		s.log.Info("scheduled forgetting pass finished", "removed", removed)
	})
	go s.loop(ctx, "consolidation", s.consolidateEvery, func(ctx context.Context) {
		consolidated := s.store.Consolidate(ctx)
		s.log.Info("scheduled consolidation pass finished", "consolidated", consolidated)
	})
}

// Stop cancels both jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, name string, every time.Duration, run func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, name, run)
		}
	}
}

// runOnce shields the ticker loop from a panicking pass.
func (s *Scheduler) runOnce(ctx context.Context, name string, run func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("maintenance job panicked", "job", name, "panic", r)
		}
	}()
	run(ctx)
}
