package queue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ticketgate/waitroom-server/pkg/config"
	"ticketgate/waitroom-server/pkg/infra"
	"ticketgate/waitroom-server/pkg/store"
)

// SweepResult is what one per-queue sweep procedure reports back.
type SweepResult struct {
	Admitted    int64
	Head        int64
	Tail        int64
	ActiveCount int64
	MaxActive   int64

	// True when the queue hash was gone and its leftover sets were
	// reaped instead.
	QueueClosed bool
}

// Scheduler runs the periodic admission sweep. Many instances may run
// the loop; the store lease ensures at most one sweeps per tick, and a
// crashed sweeper just lets the lease expire. Eviction runs before the
// slot computation inside the same procedure, so capacity freed by
// lapsed tickets is re-admitted within the same tick.
type Scheduler struct {
	store  *store.Store
	repo   *Repo
	stats  *Stats
	logger *zap.SugaredLogger
}

func ProvideScheduler(store *store.Store, repo *Repo, stats *Stats, loggerFactory *infra.LoggerFactory) *Scheduler {
	return &Scheduler{
		store:  store,
		repo:   repo,
		stats:  stats,
		logger: loggerFactory.Create("Scheduler").Sugar(),
	}
}

func (s *Scheduler) Run() {
	go s.sweepWorker()
}

func (s *Scheduler) sweepWorker() {
	interval := time.Duration(*config.CFG.SweepIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for ; true; <-ticker.C {
		s.SweepTick(context.Background())
	}
}

// SweepTick attempts one fleet-wide sweep. Losing the lease race is a
// normal skip, not an error: another instance owns this tick and
// admission catches up next period.
func (s *Scheduler) SweepTick(ctx context.Context) {
	lockTTL := time.Duration(*config.CFG.SweepLockTTLSeconds) * time.Second
	acquired, err := s.store.SetIfAbsentTTL(ctx, store.SweepLockKey, "locked", lockTTL)
	if err != nil {
		s.logger.Errorf("cannot acquire sweep lock %v", err)
		return
	}
	if !acquired {
		s.logger.Debugf("sweep lock held elsewhere, skipping tick")
		return
	}

	queueIds, err := s.repo.AllQueues(ctx)
	if err != nil {
		s.logger.Errorf("cannot list queues %v", err)
		return
	}

	// A failing queue is skipped, never fatal to the rest of the
	// sweep.
	for _, queueId := range queueIds {
		result, err := s.sweepQueue(ctx, queueId)
		if err != nil {
			s.logger.Errorf("sweep failed for queue[%v] %v", queueId, err)
			continue
		}

		if result.QueueClosed {
			s.stats.Forget(queueId)
			s.logger.Infof("reaped leftover sets of closed queue[%v]", queueId)
			continue
		}

		s.stats.RecordAdmitted(queueId, result.Admitted)
		if result.Admitted > 0 {
			s.logger.Infof("queue[%v] admitted[%v] head[%v] tail[%v] active[%v]",
				queueId, result.Admitted, result.Head, result.Tail, result.ActiveCount)
		}
	}
}

func (s *Scheduler) sweepQueue(ctx context.Context, queueId string) (*SweepResult, error) {
	keys := []string{
		queueId,
		store.ReadySetKey(queueId),
		store.ActiveSetKey(queueId),
		store.AllQueuesKey,
	}
	result, err := s.store.RunScript(ctx, store.SweepProc, keys,
		time.Now().Unix(), *config.CFG.TicketHashGraceSeconds)
	if err != nil {
		return nil, err
	}

	reply, err := replyInts(result)
	if err != nil {
		return nil, err
	}
	if len(reply) != 5 {
		return nil, errMalformedSweepReply
	}

	if reply[0] < 0 {
		return &SweepResult{QueueClosed: true}, nil
	}
	return &SweepResult{
		Admitted:    reply[0],
		Head:        reply[1],
		Tail:        reply[2],
		ActiveCount: reply[3],
		MaxActive:   reply[4],
	}, nil
}
